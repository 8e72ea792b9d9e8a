package wordlist

// Category groups rules by the kind of wording they catch.
type Category uint8

const (
	// CategoryEquality covers insensitive or inconsiderate wording.
	CategoryEquality Category = iota
	// CategoryProfanity covers profane wording.
	CategoryProfanity
)

func (c Category) String() string {
	switch c {
	case CategoryEquality:
		return "retext-equality"
	case CategoryProfanity:
		return "retext-profanities"
	}
	return "unknown"
}

// Sureness levels for profanity rules, matching the profanitySureness setting.
const (
	SurenessUnlikely = iota
	SurenessMaybe
	SurenessLikely
)

// Rule is a single word-list entry.
type Rule struct {
	ID       string
	Phrases  []string // lower case, words separated by one space
	Suggest  []string
	Category Category
	Sureness int  // profanity only
	Binary   bool // gendered pairs; reported only with noBinary
	Fatal    bool
}

// DefaultRules is the built-in table.
var DefaultRules = []Rule{
	{ID: "master", Phrases: []string{"master", "masters"}, Suggest: []string{"primary", "main", "leader"}},
	{ID: "slave", Phrases: []string{"slave", "slaves"}, Suggest: []string{"secondary", "replica", "follower"}},
	{ID: "whitelist", Phrases: []string{"whitelist", "whitelists", "whitelisted", "white list"}, Suggest: []string{"allowlist", "passlist"}},
	{ID: "blacklist", Phrases: []string{"blacklist", "blacklists", "blacklisted", "black list"}, Suggest: []string{"denylist", "blocklist"}},
	{ID: "guys", Phrases: []string{"guys", "you guys"}, Suggest: []string{"people", "folks", "everyone"}},
	{ID: "mankind", Phrases: []string{"mankind"}, Suggest: []string{"humankind", "humanity"}},
	{ID: "manpower", Phrases: []string{"manpower"}, Suggest: []string{"workforce", "personnel", "staff"}},
	{ID: "chairman", Phrases: []string{"chairman", "chairwoman"}, Suggest: []string{"chair", "chairperson"}},
	{ID: "fireman", Phrases: []string{"fireman", "firemen"}, Suggest: []string{"firefighter", "firefighters"}},
	{ID: "policeman", Phrases: []string{"policeman", "policemen", "policewoman"}, Suggest: []string{"police officer"}},
	{ID: "mailman", Phrases: []string{"mailman", "postman"}, Suggest: []string{"mail carrier", "postal worker"}},
	{ID: "businessman", Phrases: []string{"businessman", "businesswoman"}, Suggest: []string{"businessperson", "entrepreneur"}},
	{ID: "sanity-check", Phrases: []string{"sanity check", "sanity checks"}, Suggest: []string{"confidence check", "coherence check"}},
	{ID: "dummy-value", Phrases: []string{"dummy value", "dummy variable"}, Suggest: []string{"placeholder value", "sample value"}},
	{ID: "grandfathered", Phrases: []string{"grandfathered", "grandfather clause"}, Suggest: []string{"legacy", "exempt"}},
	{ID: "crazy", Phrases: []string{"crazy", "insane"}, Suggest: []string{"unexpected", "surprising", "wild"}},
	{ID: "lame", Phrases: []string{"lame"}, Suggest: []string{"boring", "dull", "uninspiring"}},
	{ID: "dumb", Phrases: []string{"dumb"}, Suggest: []string{"foolish", "unwise"}},
	{ID: "crippled", Phrases: []string{"crippled", "cripple"}, Suggest: []string{"impaired", "degraded"}},
	{ID: "retard", Phrases: []string{"retard", "retarded"}, Suggest: []string{"silly", "foolish"}, Fatal: true},
	{ID: "he-she", Phrases: []string{"he or she", "she or he"}, Suggest: []string{"they"}, Binary: true},
	{ID: "his-her", Phrases: []string{"his or her", "her or his"}, Suggest: []string{"their", "theirs"}, Binary: true},
	{ID: "him-her", Phrases: []string{"him or her", "her or him"}, Suggest: []string{"them"}, Binary: true},
	{ID: "damn", Phrases: []string{"damn", "dammit"}, Category: CategoryProfanity, Sureness: SurenessUnlikely},
	{ID: "hell", Phrases: []string{"hell"}, Category: CategoryProfanity, Sureness: SurenessUnlikely},
	{ID: "crap", Phrases: []string{"crap", "crappy"}, Category: CategoryProfanity, Sureness: SurenessMaybe},
	{ID: "bastard", Phrases: []string{"bastard"}, Category: CategoryProfanity, Sureness: SurenessMaybe},
	{ID: "shit", Phrases: []string{"shit", "shitty"}, Category: CategoryProfanity, Sureness: SurenessLikely},
	{ID: "fuck", Phrases: []string{"fuck", "fucking"}, Category: CategoryProfanity, Sureness: SurenessLikely},
}
