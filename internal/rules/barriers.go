// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package rules

import "github.com/pdiddy/refresolve/pkg/types"

// Barrier pattern sets. Gaps between key words are bounded so that two
// unrelated phrases far apart on a page do not combine into a match.
var (
	Soft404Rules = Table{
		{Name: "404-not-found", Pattern: ci(`404.{0,30}not\s*found|not\s*found.{0,30}404`), Label: "page not found (404)"},
		{Name: "page-not-found", Pattern: ci(`page\s*not\s*found|can(?:not|[’']?t)\s*find.{0,20}page`), Label: "page not found"},
		{Name: "could-not-find", Pattern: ci(`sorry.{0,40}couldn[’']?t\s*find|we\s*couldn[’']?t\s*locate`), Label: "could not find the requested page"},
		{Name: "nothing-here", Pattern: ci(`oops.{0,30}nothing\s*here|there[’']?s\s*nothing\s*here`), Label: "nothing here"},
		{Name: "doi-not-found", Pattern: ci(`doi\s*not\s*found|doi.{0,20}not\s*available`), Label: "DOI not found"},
		{Name: "document-not-found", Pattern: ci(`document\s*not\s*found|article\s*not\s*available`), Label: "document not found"},
		{Name: "item-not-found", Pattern: ci(`item\s*not\s*found|handle\s*not\s*found`), Label: "item not found"},
		{Name: "does-not-exist", Pattern: ci(`page\s*(?:you\s*requested\s*)?(?:does\s*not|doesn[’']?t)\s*exist|(?:page|content)\s*is\s*no\s*longer\s*available`), Label: "page does not exist"},
	}

	// Soft404TitleRules are applied to the HTML <title> text only.
	Soft404TitleRules = Table{
		{Name: "error-title", Pattern: ci(`\b404\b|\bnot\s*found\b|^\s*error\b|\berror\s*(?:page|\d{3})\b`), Label: "error page title"},
	}

	PaywallRules = Table{
		{Name: "subscribe-to-continue", Pattern: ci(`subscribe.{0,40}continue|subscription.{0,20}required`), Label: "subscription required"},
		{Name: "priced-access", Pattern: ci(`\$\d+(?:\.\d{2})?\s*(?:to\s*)?(?:access|view|read|download|rent|buy)`), Label: "priced access"},
		{Name: "purchase-access", Pattern: ci(`purchase.{0,30}access|buy.{0,20}article|pay.{0,20}per.{0,5}view`), Label: "purchase required"},
		{Name: "paywall", Pattern: ci(`\bpaywall\b|payment.{0,20}required`), Label: "paywall"},
		{Name: "login-subscribe", Pattern: ci(`\b(?:log|sign)\s*in\b.{0,30}subscribe|already\s*a\s*subscriber`), Label: "subscriber login"},
		{Name: "members-only", Pattern: ci(`members?\s*only|members?\s*exclusive|become\s*a\s*(?:member|subscriber)`), Label: "members only"},
		{Name: "trial-then-price", Pattern: ci(`free\s*trial.{0,40}then\s*\$`), Label: "free trial then paid"},
		{Name: "upgrade", Pattern: ci(`upgrade\s*to\s*(?:premium|pro|plus)`), Label: "premium upgrade"},
		{Name: "limited-access-subscribe", Pattern: ci(`limited\s*access.{0,40}subscribe`), Label: "limited access"},
		{Name: "full-text-price", Pattern: ci(`(?:full\s*text|complete\s*article).{0,30}\$\d`), Label: "priced full text"},
		{Name: "price-download", Pattern: ci(`price.{0,20}download|cost.{0,20}access`), Label: "priced download"},
	}

	LoginRules = Table{
		{Name: "sign-in-to-continue", Pattern: ci(`\b(?:sign|log)\s*in\b.{0,30}\b(?:continue|read|view)\b`), Label: "sign in to continue"},
		{Name: "login-required", Pattern: ci(`authentication.{0,20}required|login.{0,20}required`), Label: "login required"},
		{Name: "please-sign-in", Pattern: ci(`please\s*(?:log\s*in|sign\s*in)\b`), Label: "please sign in"},
		{Name: "credentials", Pattern: ci(`credentials.{0,20}required|authorized\s*users?\s*only`), Label: "credentials required"},
		{Name: "restricted", Pattern: ci(`restricted\s*access|access\s*(?:is\s*)?restricted`), Label: "restricted access"},
		{Name: "account-required", Pattern: ci(`account\s*(?:is\s*)?required|create\s*(?:an\s*)?account\s*to\s*(?:continue|read|view)`), Label: "account required"},
		{Name: "licensed", Pattern: ci(`licensed\s*content|license\s*required`), Label: "licensed content"},
	}

	// InstitutionalRules detect institution-only access. A match is reported
	// as LoginRequired but scored in the institutional band.
	InstitutionalRules = Table{
		{Name: "institutional-access", Pattern: ci(`institutional\s*(?:access|login)|institution.{0,10}login`), Label: "institutional access"},
		{Name: "through-library", Pattern: ci(`access\s*(?:through|via)\s*your\s*(?:institution|library)|access.{0,10}through.{0,10}library`), Label: "access through library"},
		{Name: "academic-access", Pattern: ci(`university\s*access|academic\s*access`), Label: "academic access"},
	}

	PreviewRules = Table{
		{Name: "limited-preview", Pattern: ci(`limited\s*preview|preview\s*only`), Label: "limited preview"},
		{Name: "sample-pages", Pattern: ci(`first\s*\d+\s*pages?|sample\s*pages?`), Label: "sample pages"},
		{Name: "excerpt", Pattern: ci(`excerpt\s*only|selected\s*pages`), Label: "excerpt only"},
		{Name: "toc-only", Pattern: ci(`table\s*of\s*contents\s*only`), Label: "table of contents only"},
		{Name: "abstract-only", Pattern: ci(`abstract\s*only|summary\s*only`), Label: "abstract only"},
		{Name: "partial-view", Pattern: ci(`partial\s*view|incomplete\s*view`), Label: "partial view"},
		{Name: "preview-unavailable", Pattern: ci(`preview\s*unavailable|no\s*preview\s*available|full\s*view\s*not\s*available`), Label: "preview unavailable"},
		{Name: "pages-shown", Pattern: ci(`\d+\s*of\s*\d+\s*pages\s*(?:are\s*)?(?:shown|visible|displayed)|pages?\s*\d+\s*(?:to|-)\s*\d+\s*(?:are|is)\s*not\s*shown`), Label: "pages omitted"},
		{Name: "limited-content", Pattern: ci(`sample\s*content|limited\s*content`), Label: "limited content"},
	}

	// BorrowRules detect free lending access, scored in the preview/borrow band.
	BorrowRules = Table{
		{Name: "borrow", Pattern: ci(`borrow\s*(?:this\s*book|now|for\s*\d+\s*(?:hours?|days?|weeks?))|join\s*waitlist`), Label: "free borrow"},
	}
)

// BarrierOrder is the detection order. The first barrier found supplies
// the validation reason.
var BarrierOrder = []types.Barrier{types.Soft404, types.Paywall, types.LoginRequired, types.PreviewOnly}

// BarrierRules maps each barrier to its pattern set.
var BarrierRules = map[types.Barrier]Table{
	types.Soft404:       Soft404Rules,
	types.Paywall:       PaywallRules,
	types.LoginRequired: LoginRules,
	types.PreviewOnly:   PreviewRules,
}
