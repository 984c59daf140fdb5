package model

type Config struct {
	Path           string
	LibraryPath    string
	InputName      string
	OutputName     string
	IntraOpThreads int
}

type Metadata struct {
	InputName   string  `json:"input_name"`
	OutputName  string  `json:"output_name"`
	InputShape  []int64 `json:"input_shape"`
	OutputShape []int64 `json:"output_shape"`
	ImageSize   int     `json:"image_size"`
	Classes     int     `json:"classes"`
}
