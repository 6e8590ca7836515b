package model

type MkdirRequest struct {
	Path       string `json:"path"`
	FolderName string `json:"folder_name"`
}

type DeleteRequest struct {
	Path  string `json:"path"`
	Name  string `json:"name"`
	IsDir bool   `json:"is_dir"`
}

// Move/copy modes accepted on the wire.
const (
	ModeCopy = "copy"
	ModeCut  = "cut"
)

type MoveCopyRequest struct {
	SrcPath string `json:"src_path"`
	DstPath string `json:"dst_path"`
	Name    string `json:"name"`
	IsDir   bool   `json:"is_dir"`
	Mode    string `json:"mode"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}
