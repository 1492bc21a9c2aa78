// Package e2e exercises the full HTTP API surface against a seeded corpus.
package e2e

// Document is a corpus entry inserted through the API.
type Document struct {
	Key  string
	Text string
}

// QueryCase is a search query with the corpus keys expected among the results.
type QueryCase struct {
	Description  string
	Query        string
	ExpectedKeys []string
}

// Corpus is a fixed set of documents plus query test cases over them.
type Corpus struct {
	Documents []Document
	TestCases []QueryCase
}

// BuildCorpus returns the shared e2e corpus. The mock embedder hashes words,
// so queries sharing words with a document land near it.
func BuildCorpus() *Corpus {
	return &Corpus{
		Documents: []Document{
			{Key: "ml", Text: "machine learning algorithms learn patterns from training data"},
			{Key: "search", Text: "semantic search uses vector embeddings to find similar documents"},
			{Key: "cat", Text: "the cat sat on the mat and watched the birds"},
			{Key: "cooking", Text: "slow cooking brings out deep flavors in a winter stew"},
			{Key: "space", Text: "the rover landed on mars and began collecting rock samples"},
			{Key: "db", Text: "a vector database stores embeddings and answers similarity queries"},
		},
		TestCases: []QueryCase{
			{
				Description:  "machine learning query finds the ml document",
				Query:        "machine learning training",
				ExpectedKeys: []string{"ml"},
			},
			{
				Description:  "embeddings query finds vector documents",
				Query:        "vector embeddings similarity",
				ExpectedKeys: []string{"search", "db"},
			},
			{
				Description:  "cat query finds the cat document",
				Query:        "cat on the mat",
				ExpectedKeys: []string{"cat"},
			},
			{
				Description:  "mars query finds the space document",
				Query:        "mars rover samples",
				ExpectedKeys: []string{"space"},
			},
		},
	}
}
