package domain

type (
	RoomId         = string
	SubscriptionId = string
	ThreadId       = string
	UserId         = string
	MsgText        = string
)

// Room types as reported by the chat server.
const (
	RoomTypeChannel = "c"
	RoomTypePrivate = "p"
	RoomTypeDirect  = "d"
	RoomTypeThread  = "thread"
)
