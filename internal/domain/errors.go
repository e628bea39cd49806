package domain

import "errors"

var (
	ErrProjectNotFound = errors.New("project does not exist")
	ErrProjectExists   = errors.New("project already exists")
	ErrServerNotFound  = errors.New("server is not known")
	ErrMentionRequired = errors.New("please mention the member to add")
	ErrUserNotFound    = errors.New("user does not exist")
	ErrListNotFound    = errors.New("list does not exist")
	ErrJournalDisabled = errors.New("command journal is disabled")
	ErrNoServerID      = errors.New("a server id is required")
	ErrNoChannelID     = errors.New("a channel id is required")
)
