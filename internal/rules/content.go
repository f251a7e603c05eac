// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package rules

// ReviewPhrases mark a candidate that is about a work rather than the work.
var ReviewPhrases = Table{
	{Name: "review-of", Pattern: ci(`\breview\s+of\b|:\s*a\s+review\b|\bbook\s+review\b|\breviewed\s+by\b`), Label: "review"},
	{Name: "analysis-of", Pattern: ci(`\banalysis\s+of\b|\bcritique\s+of\b|\bcommentary\s+on\b`), Label: "analysis"},
	{Name: "discussion-of", Pattern: ci(`\bdiscussion\s+of\b|\bresponse\s+to\b|\bessay\s+on\b|\bthoughts\s+on\b`), Label: "discussion"},
	{Name: "evaluating", Pattern: ci(`^(?:examining|evaluating|assessing|revisiting)\b`), Label: "evaluation"},
}

// DiscussionPhrases mark general commentary in a snippet.
var DiscussionPhrases = Table{
	{Name: "argues", Pattern: ci(`\b(?:argues|argued|contends|claims)\s+that\b`), Label: "argument"},
	{Name: "summary", Pattern: ci(`\bsummary\s+of\b|\boverview\s+of\b|\bexplained\b|\bkey\s+ideas\b|\bsummarizes\b`), Label: "summary"},
	{Name: "discusses", Pattern: ci(`\bdiscuss(?:es|ed|ing)?\b|\bexamines\b|\bexplores\b|\bin\s+his\s+book\b|\bin\s+her\s+book\b|\bin\s+their\s+book\b`), Label: "discussion"},
	{Name: "lecture", Pattern: ci(`\blecture\b|\bpodcast\b|\binterview\b`), Label: "talk"},
}

// FullTextHints mark a snippet or title that advertises the full work.
var FullTextHints = Table{
	{Name: "full-text", Pattern: ci(`\bfull[\s-]?text\b|\bread\s+online\b|\bfree\s+download\b|\bdownload\s+pdf\b|\[pdf\]|\bopen\s+access\b`), Label: "full text"},
}

// Path patterns used by candidate classification.
var (
	TOCPaths = Table{
		{Name: "toc", Pattern: ci(`/toc\b|table-of-contents|/contents(?:/|$)|/tableofcontents`), Label: "table of contents"},
	}

	AuthorBibliographyPaths = Table{
		{Name: "author-page", Pattern: ci(`/(?:author|authors|people|person|profile|faculty|staff|contributor)s?/`), Label: "author page"},
		{Name: "bibliography", Pattern: ci(`/bibliograph(?:y|ies)\b|/publications/?$|/cv(?:/|\.|$)`), Label: "bibliography"},
	}

	ReviewPaths = Table{
		{Name: "review-path", Pattern: ci(`/reviews?/|book-review|/review-`), Label: "review page"},
	}

	PurchasePaths = Table{
		{Name: "purchase-path", Pattern: ci(`/dp/|/gp/product/|/buy\b|/cart\b|/shop/|/product/|/checkout`), Label: "purchase page"},
	}

	FullTextPaths = Table{
		{Name: "pdf", Pattern: ci(`\.pdf(?:$|\?)|/pdf/|/epdf/|/fulltext|/full$|/full/|/download/`), Label: "full-text path"},
		{Name: "archive-item", Pattern: ci(`/details/|/stream/|/ebooks/\d+`), Label: "archive item"},
	}

	LandingPaths = Table{
		{Name: "landing", Pattern: ci(`/article/|/articles/|/book/|/books/|/chapter/|/stable/|/abs/|/doi/|/record/|/handle/|/item/`), Label: "landing page"},
	}
)
