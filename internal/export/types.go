package export

// Format names accepted by the export endpoints and CLI.
const (
	FormatEDL       = "edl"
	FormatChecklist = "checklist"
)

// Request asks for an export of one project.
type Request struct {
	Format    string  `json:"format"`
	FrameRate float64 `json:"frame_rate"`
	OutputDir string  `json:"output_dir"`
}

// Clip is one plan item resolved to a media file on disk.
type Clip struct {
	SceneIndex int
	Name       string
	MediaPath  string
	StartMs    int
	EndMs      int
	Speed      float64
}

// Response reports where an export was written.
type Response struct {
	Status           string `json:"status"`
	Format           string `json:"format"`
	OutputPath       string `json:"output_path"`
	ClipCount        int    `json:"clip_count"`
	UnresolvedScenes []int  `json:"unresolved_scenes"`
}
