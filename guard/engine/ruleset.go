package engine

// Holds configuration of which rules of various types should be run, and
// helps dispatch events to those rules.
type RuleSet struct {
	MessageRules []MessageRuleFunc
	// run for every member-joined event, bot or human
	MemberJoinRules []MemberJoinRuleFunc
	// run for channel-delete, role-delete, member-ban, and member-remove
	// events; the context's Kind field says which
	AdminActionRules []AdminActionRuleFunc
	WebhookRules     []WebhookRuleFunc
}

// Executes all message rules. Only dispatches execution, does no other
// de-dupe or pre/post processing.
func (r *RuleSet) CallMessageRules(c *MessageContext) error {
	for _, f := range r.MessageRules {
		if err := f(c); err != nil {
			return err
		}
	}
	return nil
}

func (r *RuleSet) CallMemberJoinRules(c *MemberJoinContext) error {
	for _, f := range r.MemberJoinRules {
		if err := f(c); err != nil {
			return err
		}
	}
	return nil
}

func (r *RuleSet) CallAdminActionRules(c *AdminActionContext) error {
	for _, f := range r.AdminActionRules {
		if err := f(c); err != nil {
			return err
		}
	}
	return nil
}

func (r *RuleSet) CallWebhookRules(c *WebhookContext) error {
	for _, f := range r.WebhookRules {
		if err := f(c); err != nil {
			return err
		}
	}
	return nil
}
