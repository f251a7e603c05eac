// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package scorer

import (
	"net/url"
	"strings"

	"golang.org/x/net/publicsuffix"
)

// tier maps a set of hosts to a base score. A host matches when it equals
// an entry or is a subdomain of it.
type tier struct {
	hosts []string
	score int
	label string
}

// primaryTiers is ordered: specific hosts come before the TLD rules below.
var primaryTiers = []tier{
	{hosts: []string{"archive.org", "hathitrust.org", "gutenberg.org", "loc.gov", "europeana.eu", "biodiversitylibrary.org", "wellcomecollection.org"}, score: 90, label: "long-term archive"},
	{hosts: []string{"doi.org", "dx.doi.org", "hdl.handle.net"}, score: 85, label: "DOI resolver"},
	{hosts: []string{"arxiv.org", "ssrn.com", "ncbi.nlm.nih.gov", "europepmc.org", "core.ac.uk", "plato.stanford.edu", "philpapers.org", "osf.io", "zenodo.org"}, score: 85, label: "open repository"},
	{hosts: []string{
		"jstor.org", "cambridge.org", "oup.com", "press.uchicago.edu", "mitpress.mit.edu", "springer.com",
		"wiley.com", "tandfonline.com", "sagepub.com", "nature.com", "science.org", "pnas.org",
		"sciencedirect.com", "muse.jhu.edu", "degruyter.com", "routledge.com", "penguinrandomhouse.com",
		"harpercollins.com", "macmillan.com", "us.macmillan.com", "hup.harvard.edu", "yalebooks.yale.edu", "press.princeton.edu",
		"ucpress.edu", "nyupress.org", "bloomsbury.com", "brill.com", "apa.org", "plos.org",
		"frontiersin.org", "mdpi.com", "elifesciences.org", "aeaweb.org", "nber.org", "annualreviews.org",
	}, score: 82, label: "publisher"},
	{hosts: []string{"openlibrary.org"}, score: 75, label: "lending library"},
	{hosts: []string{"books.google.com", "play.google.com"}, score: 70, label: "preview catalog"},
	{hosts: []string{"researchgate.net", "academia.edu", "semanticscholar.org"}, score: 65, label: "author upload"},
	{hosts: []string{"wikipedia.org", "britannica.com"}, score: 45, label: "reference work"},
	{hosts: purchaseHosts, score: 50, label: "purchase page"},
}

// purchaseHosts are retail sites.
var purchaseHosts = []string{
	"amazon.com", "amazon.co.uk", "amazon.de", "amazon.ca", "barnesandnoble.com", "bookshop.org",
	"abebooks.com", "ebay.com", "alibris.com", "bookdepository.com", "thriftbooks.com",
	"betterworldbooks.com", "walmart.com",
}

// aggregatorHosts are catalogs and generic listing sites; they never
// qualify as Primary.
var aggregatorHosts = []string{
	"worldcat.org", "goodreads.com", "librarything.com", "scholar.google.com", "isbnsearch.org",
	"bookfinder.com", "isbndb.com", "biblio.com", "search.worldcat.org", "catalog.hathitrust.org",
	"scholar.archive.org",
}

// Secondary source authority, in descending order.
var secondaryTiers = []tier{
	{hosts: []string{
		"jstor.org", "muse.jhu.edu", "doi.org", "tandfonline.com", "sagepub.com", "springer.com",
		"wiley.com", "academic.oup.com", "cambridge.org", "sciencedirect.com", "nature.com", "science.org",
		"pnas.org", "annualreviews.org", "aeaweb.org", "journals.uchicago.edu", "lrb.co.uk", "nybooks.com",
	}, score: 95, label: "peer-reviewed venue"},
	{hosts: []string{
		"archive.org", "plato.stanford.edu", "britannica.com", "iep.utm.edu", "ncbi.nlm.nih.gov",
		"loc.gov", "nber.org", "brookings.edu", "pewresearch.org", "rand.org",
	}, score: 85, label: "institutional"},
	{hosts: []string{
		"nytimes.com", "theguardian.com", "washingtonpost.com", "theatlantic.com", "newyorker.com",
		"bbc.co.uk", "bbc.com", "npr.org", "economist.com", "wired.com", "ft.com", "wsj.com",
		"scientificamerican.com", "hbr.org", "vox.com", "newscientist.com", "cnbc.com", "reuters.com",
		"bloomberg.com", "forbes.com", "time.com", "psychologytoday.com", "aeon.co",
	}, score: 70, label: "established outlet"},
	{hosts: []string{
		"medium.com", "wordpress.com", "blogspot.com", "substack.com", "coursehero.com", "studocu.com",
		"gradesaver.com", "sparknotes.com", "bartleby.com", "ukessays.com", "shmoop.com", "cliffsnotes.com",
		"goodreads.com", "reddit.com", "quora.com",
	}, score: 40, label: "blog or student source"},
}

// nonEnglishTLDs mark country-code domains whose content is usually not English.
var nonEnglishTLDs = map[string]bool{
	"de": true, "fr": true, "es": true, "it": true, "nl": true, "pt": true, "br": true, "ru": true,
	"jp": true, "cn": true, "kr": true, "pl": true, "se": true, "no": true, "dk": true, "fi": true,
	"cz": true, "hu": true, "tr": true, "gr": true, "ro": true, "ar": true, "mx": true, "cl": true,
	"at": true, "tw": true, "ua": true, "sk": true, "bg": true,
}

var languageCodes = map[string]bool{
	"de": true, "fr": true, "es": true, "it": true, "nl": true, "pt": true, "ru": true, "ja": true,
	"zh": true, "ko": true, "pl": true, "sv": true, "tr": true, "ar": true, "el": true, "cs": true,
}

// hostOf returns the lowercased host of rawURL without a leading "www.".
func hostOf(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
}

// pathOf returns the path and query of rawURL.
func pathOf(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return ""
	}
	p := u.EscapedPath()
	if u.RawQuery != "" {
		p += "?" + u.RawQuery
	}
	return p
}

// RegistrableDomain returns the eTLD+1 of rawURL, or its host when the
// public suffix list cannot resolve it.
func RegistrableDomain(rawURL string) string {
	host := hostOf(rawURL)
	if host == "" {
		return ""
	}
	if d, err := publicsuffix.EffectiveTLDPlusOne(host); err == nil {
		return d
	}
	return host
}

func hostMatches(host string, entries []string) bool {
	for _, e := range entries {
		if host == e || strings.HasSuffix(host, "."+e) {
			return true
		}
	}
	return false
}

// isAggregator reports whether host is a catalog or listing site.
func isAggregator(host string) bool {
	if hostMatches(host, aggregatorHosts) {
		return true
	}
	return strings.HasPrefix(host, "catalog.") || strings.HasPrefix(host, "catalogue.")
}

// primaryAuthority returns the domain authority base score for host.
func primaryAuthority(host string) (int, string) {
	for _, t := range primaryTiers {
		if hostMatches(host, t.hosts) {
			return t.score, t.label
		}
	}
	switch {
	case strings.HasSuffix(host, ".edu") || strings.Contains(host, ".ac."):
		return 80, "academic institution"
	case strings.HasSuffix(host, ".gov") || strings.Contains(host, ".gov."):
		return 80, "government"
	case strings.HasPrefix(host, "press.") || strings.Contains(host, "press."):
		return 80, "publisher"
	case strings.HasSuffix(host, ".org"):
		return 55, "organization"
	}
	return 30, "unknown"
}

// secondaryAuthority returns the source-authority score for host.
func secondaryAuthority(host string) (int, string) {
	for _, t := range secondaryTiers {
		if hostMatches(host, t.hosts) {
			return t.score, t.label
		}
	}
	switch {
	case strings.HasSuffix(host, ".edu") || strings.Contains(host, ".ac.") || strings.HasSuffix(host, ".gov"):
		return 85, "institutional"
	case strings.HasSuffix(host, ".org"):
		return 60, "organization"
	}
	return 55, "unknown"
}

// nonEnglishDomain reports whether the URL's TLD, language subdomain or
// leading path segment indicates a non-English source.
func nonEnglishDomain(rawURL string) bool {
	host := hostOf(rawURL)
	if host == "" {
		return false
	}
	labels := strings.Split(host, ".")
	if nonEnglishTLDs[labels[len(labels)-1]] {
		return true
	}
	if len(labels) > 2 && languageCodes[labels[0]] {
		return true
	}
	path := strings.TrimPrefix(pathOf(rawURL), "/")
	if i := strings.IndexByte(path, '/'); i > 0 {
		return languageCodes[strings.ToLower(path[:i])]
	}
	return false
}
