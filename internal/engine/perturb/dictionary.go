package perturb

// DefaultDictionary returns the built-in synonym table, biased towards
// newswire vocabulary.
func DefaultDictionary() Dictionary {
	return Dictionary{
		"rose":       {"climbed", "rallied", "gained"},
		"rise":       {"climb", "gain", "increase"},
		"rises":      {"climbs", "gains", "increases"},
		"fell":       {"dropped", "declined", "slid"},
		"fall":       {"drop", "decline", "slide"},
		"falls":      {"drops", "declines", "slides"},
		"today":      {"on Tuesday", "this day"},
		"stocks":     {"shares", "equities"},
		"shares":     {"stocks", "equities"},
		"profit":     {"earnings", "income"},
		"profits":    {"earnings", "gains"},
		"company":    {"firm", "business"},
		"companies":  {"firms", "businesses"},
		"says":       {"states", "reports"},
		"said":       {"stated", "reported"},
		"win":        {"victory", "triumph"},
		"wins":       {"beats", "defeats"},
		"won":        {"triumphed", "prevailed"},
		"beat":       {"defeated", "topped"},
		"team":       {"squad", "side"},
		"game":       {"match", "contest"},
		"season":     {"campaign", "term"},
		"coach":      {"manager", "trainer"},
		"players":    {"athletes", "competitors"},
		"government": {"administration", "authorities"},
		"president":  {"leader", "head of state"},
		"officials":  {"authorities", "representatives"},
		"killed":     {"slain", "dead"},
		"attack":     {"assault", "strike"},
		"talks":      {"negotiations", "discussions"},
		"election":   {"vote", "poll"},
		"war":        {"conflict", "fighting"},
		"new":        {"fresh", "novel"},
		"big":        {"large", "major"},
		"large":      {"big", "sizable"},
		"small":      {"little", "minor"},
		"quickly":    {"rapidly", "swiftly"},
		"launch":     {"release", "unveil"},
		"launches":   {"releases", "unveils"},
		"software":   {"program", "application"},
		"computer":   {"machine", "PC"},
		"internet":   {"web", "net"},
		"users":      {"customers", "consumers"},
		"scientists": {"researchers", "experts"},
		"study":      {"research", "report"},
		"space":      {"orbit", "outer space"},
		"oil":        {"crude", "petroleum"},
		"prices":     {"costs", "rates"},
		"price":      {"cost", "rate"},
		"market":     {"exchange", "marketplace"},
		"markets":    {"exchanges", "bourses"},
		"deal":       {"agreement", "pact"},
		"buy":        {"acquire", "purchase"},
		"sell":       {"divest", "offload"},
		"sales":      {"revenue", "turnover"},
		"plans":      {"intends", "aims"},
		"report":     {"account", "statement"},
		"week":       {"seven days"},
		"first":      {"initial", "opening"},
		"top":        {"leading", "best"},
	}
}
