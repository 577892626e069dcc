package handler

type geocodeResponse struct {
	Place       string  `json:"place"`
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
	Origin      string  `json:"origin"`
	Approximate bool    `json:"approximate"`
	Error       string  `json:"error,omitempty"`
}

type geocodeBatchRequest struct {
	Places []string `json:"places" validate:"required,min=1,max=50,dive,required"`
}

type geocodeBatchResponse struct {
	Results []geocodeResponse `json:"results"`
}

type distanceResponse struct {
	From       geocodeResponse `json:"from"`
	To         geocodeResponse `json:"to"`
	DistanceKm float64         `json:"distance_km"`
}
