package layout

// Placement records where a module sits on the grid for one device
// type. It is advisory: the referenced module may have been deleted,
// in which case the renderer simply omits it.
type Placement struct {
	ModuleID string `json:"id" binding:"required"`
	X        int    `json:"x" binding:"min=0"`
	Y        int    `json:"y" binding:"min=0"`
	W        int    `json:"w" binding:"required,min=1"`
	H        int    `json:"h" binding:"required,min=1"`
}

type SaveLayoutRequest struct {
	Layout []Placement `json:"layout" binding:"required,dive"`
}
