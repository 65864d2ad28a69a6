package settings

// ===== Requests =====

// All three fields must be supplied; pointers keep a legal zero fine rate
// distinguishable from an omitted field.
type UpdateSettingsRequest struct {
	PickupWindowDays *int     `json:"pickup_window_days" binding:"required"`
	StandardLoanDays *int     `json:"standard_loan_days" binding:"required"`
	DailyFineAmount  *float64 `json:"daily_fine_amount" binding:"required"`
}

// ===== Responses =====

type SettingsResponse struct {
	PickupWindowDays int     `json:"pickup_window_days"`
	StandardLoanDays int     `json:"standard_loan_days"`
	DailyFineAmount  float64 `json:"daily_fine_amount"`
}

func buildSettingsResponse(s *Settings) SettingsResponse {
	return SettingsResponse{
		PickupWindowDays: s.PickupWindowDays,
		StandardLoanDays: s.StandardLoanDays,
		DailyFineAmount:  s.DailyFineAmount,
	}
}
