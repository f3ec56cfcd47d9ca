package model

// StudentLoginRequest is the payload for starting an exam attempt.
type StudentLoginRequest struct {
	StudentName string `json:"student_name" form:"student_name" binding:"max=100"`
	Password    string `json:"password" form:"password" binding:"max=128"`
}

// StudentLoginResponse is returned after a successful login.
type StudentLoginResponse struct {
	Token     string `json:"token"`
	SessionID string `json:"session_id"`
	ExpiresAt int64  `json:"expires_at"`
}
