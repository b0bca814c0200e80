package validation

// CustomMessage returns field specific messages keyed by validation tag
func CustomMessage(field string) map[string]string {
	var customValidationMessages = map[string]map[string]string{
		"Email": {
			"required": "Email is required.",
			"email":    "Email is not a valid email address.",
		},
		"Password": {
			"required": "Password is required.",
		},
		"NewPassword": {
			"required": "New password is required.",
		},
		"CurrentPassword": {
			"required": "Current password is required.",
		},
		"ConfirmPassword": {
			"required": "Password confirmation is required.",
		},
		"FirstName": {
			"required": "First name is required.",
		},
		"LastName": {
			"required": "Last name is required.",
		},
		"Token": {
			"required": "Token is required.",
		},
		"RefreshToken": {
			"required": "Refresh token is required.",
		},
		"UserID": {
			"uuid": "User id must be a valid UUID.",
		},
	}
	return customValidationMessages[field]
}
