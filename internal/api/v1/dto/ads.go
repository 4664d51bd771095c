package dto

// RefreshDTO is used for incoming refresh requests. Platform defaults to
// "all" when omitted.
type RefreshDTO struct {
	Platform string `json:"platform" validate:"omitempty,oneof=meta google linkedin tiktok all"`
	Force    bool   `json:"force"`
}

// EstimateDTO is used for fetch duration estimates
type EstimateDTO struct {
	Platform string `json:"platform" validate:"omitempty,oneof=meta google linkedin tiktok all"`
}
