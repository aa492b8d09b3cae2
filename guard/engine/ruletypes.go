package engine

type MessageRuleFunc = func(c *MessageContext) error
type MemberJoinRuleFunc = func(c *MemberJoinContext) error
type AdminActionRuleFunc = func(c *AdminActionContext) error
type WebhookRuleFunc = func(c *WebhookContext) error
