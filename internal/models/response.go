package models

// GenericResponse is the envelope wrapping every REST payload
type GenericResponse struct {
	Success  bool   `json:"success"`
	Code     int    `json:"code"`
	Response any    `json:"response"`
	Detail   string `json:"detail,omitempty"`
}

// OK builds a successful envelope around a payload
func OK(payload any) GenericResponse {
	return GenericResponse{Success: true, Code: 200, Response: payload}
}

// Fail builds a failed envelope with a status code and detail string
func Fail(code int, detail string) GenericResponse {
	return GenericResponse{Success: false, Code: code, Detail: detail}
}
