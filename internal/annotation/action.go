package annotation

// Action names the client event that caused a save.
type Action string

const (
	ActionCommentAnnotationAdd    Action = "comment_annotation.add"
	ActionCommentAnnotationDelete Action = "comment_annotation.delete"
	ActionCommentAdd              Action = "comment.add"
	ActionCommentDelete           Action = "comment.delete"
	ActionCommentUpdate           Action = "comment.update"
	ActionReactionAdd             Action = "reaction.add"
	ActionReactionDelete          Action = "reaction.delete"
	ActionAttachmentAdd           Action = "attachment.add"
	ActionAttachmentDelete        Action = "attachment.delete"
)
