package rules

import (
	"github.com/R1das67/mein-nc-bot/guard"
)

func DefaultRules() guard.RuleSet {
	rules := guard.RuleSet{
		MessageRules: []guard.MessageRuleFunc{
			InviteSpamMessageRule,
		},
		MemberJoinRules: []guard.MemberJoinRuleFunc{
			UnauthorizedBotRule,
		},
		AdminActionRules: []guard.AdminActionRuleFunc{
			AdminActionAttributionRule,
		},
		WebhookRules: []guard.WebhookRuleFunc{
			WebhookCreationRule,
		},
	}
	return rules
}
