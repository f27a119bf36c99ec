package services

import "errors"

// 业务错误：只私发给当事连接，不落库也不广播
var (
	ErrNotFriends   = errors.New("you can only message friends")
	ErrNotMember    = errors.New("you are not a member of this group")
	ErrNotSender    = errors.New("only the sender can unsend a message")
	ErrEmptyContent = errors.New("message content is empty")
	ErrNotFound     = errors.New("message not found")
)
