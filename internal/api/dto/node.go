package dto

type NodeResponse struct {
	ID    string  `json:"id"`
	Title string  `json:"title"`
	Lat   float64 `json:"lat"`
	Lon   float64 `json:"lon"`
}

type ListNodesResponse struct {
	Nodes []NodeResponse `json:"nodes"`
}
