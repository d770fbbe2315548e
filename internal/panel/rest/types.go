package rest

import "arbpanel/internal/models"

type symbolsResponse struct {
	Running []string `json:"running"`
}

type configDocument struct {
	Symbols []models.SymbolConfig `json:"symbols"`
}

type configPayload struct {
	Data configDocument `json:"data"`
}

type envPayload struct {
	Text string `json:"text"`
}
