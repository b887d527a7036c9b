package service

import (
	"regexp"
	"unicode/utf8"
)

const (
	minUsernameLength = 3
	minPasswordLength = 8
)

var emailPattern = regexp.MustCompile(`^[\w.-]+@([\w-]+\.)+[\w-]{2,4}$`)

// SignupFieldErrors reports every failing signup field at once.
type SignupFieldErrors struct {
	UsernameMsg string `json:"usernameMsg"`
	EmailMsg    string `json:"emailMsg"`
	PasswordMsg string `json:"passwordMsg"`
}

func (e *SignupFieldErrors) Error() string {
	return "signup validation failed"
}

func (e *SignupFieldErrors) empty() bool {
	return e.UsernameMsg == "" && e.EmailMsg == "" && e.PasswordMsg == ""
}

// LoginFieldErrors names the login field the client should highlight.
type LoginFieldErrors struct {
	UsernameOrEmailMsg string `json:"usernameOrEmailMsg"`
	PasswordMsg        string `json:"passwordMsg"`
}

func (e *LoginFieldErrors) Error() string {
	return "login failed"
}

func validateSignup(input SignupInput) *SignupFieldErrors {
	fe := &SignupFieldErrors{}

	switch {
	case input.Username == "":
		fe.UsernameMsg = "Username required"
	case utf8.RuneCountInString(input.Username) < minUsernameLength:
		fe.UsernameMsg = "Username length must be greater than 2"
	}

	switch {
	case input.Email == "":
		fe.EmailMsg = "Email is required"
	case !emailPattern.MatchString(input.Email):
		fe.EmailMsg = "Invalid Email"
	}

	switch {
	case input.Password == "":
		fe.PasswordMsg = "Password required"
	case utf8.RuneCountInString(input.Password) < minPasswordLength:
		fe.PasswordMsg = "Password must contain at least 8 characters"
	}

	if fe.empty() {
		return nil
	}
	return fe
}

func validateLogin(input LoginInput) *LoginFieldErrors {
	fe := &LoginFieldErrors{}
	if input.UsernameOrEmail == "" {
		fe.UsernameOrEmailMsg = "Username/Email is required"
	}
	if input.Password == "" {
		fe.PasswordMsg = "Password required"
	}
	if fe.UsernameOrEmailMsg == "" && fe.PasswordMsg == "" {
		return nil
	}
	return fe
}
