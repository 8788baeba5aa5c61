package credauth

import (
	"github.com/google/uuid"

	"github.com/MrEthical07/credauth/internal/flows"
)

// IdentifierType declares whether an identifier is an email or a phone.
type IdentifierType string

const (
	IdentifierEmail IdentifierType = "email"
	IdentifierPhone IdentifierType = "phone"
)

// LoginRequest is the input of Engine.Login. DeviceInfo is optional and is
// stored on the issued refresh token.
type LoginRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
	DeviceInfo string `json:"device_info,omitempty"`
}

// LoginResponse is the token pair returned by Login and Refresh. ExpiresIn
// is the access-token lifetime in seconds.
type LoginResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type SendOtpRequest struct {
	Identifier     string         `json:"identifier"`
	IdentifierType IdentifierType `json:"identifier_type"`
}

type VerifyOtpRequest struct {
	Identifier string `json:"identifier"`
	OtpCode    string `json:"otp_code"`
}

type PasswordResetRequest struct {
	Identifier     string         `json:"identifier"`
	IdentifierType IdentifierType `json:"identifier_type"`
}

type PasswordResetConfirmRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

// QuestionAnswer pairs a catalog question with a plaintext answer.
type QuestionAnswer struct {
	QuestionID uuid.UUID `json:"question_id"`
	Answer     string    `json:"answer"`
}

type SetSecurityQuestionsRequest struct {
	Questions []QuestionAnswer `json:"questions"`
}

type VerifySecurityQuestionsRequest struct {
	Answers []QuestionAnswer `json:"answers"`
}

// SecurityQuestion is a catalog entry as exposed to callers.
type SecurityQuestion struct {
	ID       uuid.UUID `json:"id"`
	Question string    `json:"question"`
}

// AccessClaims is what ValidateAccessToken returns for an accepted token.
type AccessClaims struct {
	UserID uuid.UUID
	Email  string
	Role   string
	JTI    string
}

func toLoginResponse(p flows.TokenPair) *LoginResponse {
	return &LoginResponse{
		AccessToken:  p.AccessToken,
		RefreshToken: p.RefreshToken,
		ExpiresIn:    p.ExpiresIn,
	}
}
