package chat

import (
	"github.com/mcoot/glow/internal/oracle"
	"github.com/mcoot/glow/internal/signup"
)

// Tool names offered to the oracle
const (
	ToolCheckUsername = "check_username_available"
	ToolCheckPassword = "check_password_strength"
	ToolValidateEmail = "validate_email_format"
	ToolSendCode      = "generate_and_send_verification_code"
	ToolVerifyCode    = "verify_code"
	ToolSaveUser      = "save_user_to_database"
)

// Tools is the tool set offered to the oracle every turn
var Tools = []oracle.ToolDefinition{
	{
		Name:        ToolCheckUsername,
		Description: "Check if a username is available. Returns available or taken.",
		Parameters:  []oracle.Parameter{{Name: "username", Description: "the username the user asked for"}},
	},
	{
		Name:        ToolCheckPassword,
		Description: "Check a password is at least 6 characters. Returns ok or weak.",
		Parameters:  []oracle.Parameter{{Name: "password", Description: "the password the user chose"}},
	},
	{
		Name:        ToolValidateEmail,
		Description: "Check if an email address is well formed. Returns valid or invalid.",
		Parameters:  []oracle.Parameter{{Name: "email", Description: "the email address"}},
	},
	{
		Name:        ToolSendCode,
		Description: "Generate a 6-digit code and email it. Returns dispatched or failed.",
		Parameters:  []oracle.Parameter{{Name: "email", Description: "the validated email address"}},
	},
	{
		Name:        ToolVerifyCode,
		Description: "Check the code the user entered. Returns correct or incorrect.",
		Parameters: []oracle.Parameter{
			{Name: "email", Description: "the email the code was sent to"},
			{Name: "entered_code", Description: "the 6-digit code the user typed", Digits: signup.CodeLength},
		},
	},
	{
		Name:        ToolSaveUser,
		Description: "Save the finished signup. Returns saved once the email is verified.",
	},
}
