package ws

// MessageRead marks a direct conversation as read.
type MessageRead struct {
	PeerID uint `json:"peer_id"`
}

func (msg *MessageRead) GetType() string {
	return "read"
}

func (msg *MessageRead) Process(ctx *MessageContext) error {
	return ctx.Groups.MarkConversationRead(ctx.UserID, msg.PeerID)
}

// MessageGroupRead advances the caller's read mark in a group.
type MessageGroupRead struct {
	GroupID           uint `json:"group_id"`
	LastReadMessageID uint `json:"last_read_message_id"`
}

func (msg *MessageGroupRead) GetType() string {
	return "group_read"
}

func (msg *MessageGroupRead) Process(ctx *MessageContext) error {
	return ctx.Groups.MarkGroupRead(msg.GroupID, ctx.UserID, msg.LastReadMessageID)
}

// MessageMentionRead marks one of the caller's mentions as read.
type MessageMentionRead struct {
	MentionID uint `json:"mention_id"`
}

func (msg *MessageMentionRead) GetType() string {
	return "mention_read"
}

func (msg *MessageMentionRead) Process(ctx *MessageContext) error {
	return ctx.Mentions.MarkMentionRead(msg.MentionID, ctx.UserID)
}
