package similarity

import (
	"fmt"
	"sort"

	"github.com/balailatih/serasi/internal/models"
	"github.com/balailatih/serasi/internal/termstats"
)

// TFIDFTrace is the complete step-by-step breakdown of a single pairwise
// TF-IDF cosine computation. All six steps are materialized up front;
// ForStep projects the subset a caller asked for.
type TFIDFTrace struct {
	TrainingName string `json:"training_name"`
	JobName      string `json:"job_name"`

	TrainingOriginal string `json:"training_original"`
	JobOriginal      string `json:"job_original"`

	TokensA  []string `json:"tokens1"`
	TokensB  []string `json:"tokens2"`
	AllTerms []string `json:"all_terms"`

	TFa map[string]termstats.TermFrequency `json:"tf_d1"`
	TFb map[string]termstats.TermFrequency `json:"tf_d2"`
	DF  map[string]int                     `json:"df_dict"`
	IDF map[string]float64                 `json:"idf_dict"`

	TFIDFa map[string]float64 `json:"tfidf_d1"`
	TFIDFb map[string]float64 `json:"tfidf_d2"`

	DotProduct float64 `json:"dot_product"`
	MagA       float64 `json:"mag_d1"`
	MagB       float64 `json:"mag_d2"`
	Similarity float64 `json:"similarity"`
}

// TraceTFIDF runs the pairwise regime end to end for one training document
// and one job document.
func TraceTFIDF(training, job *models.Document) *TFIDFTrace {
	stats := termstats.Pairwise(training.Tokens, job.Tokens)
	vecA, vecB := stats.Vectors()
	dot, magA, magB := cosineParts(vecA, vecB)

	tr := &TFIDFTrace{
		TrainingName:     training.Name,
		JobName:          job.Name,
		TrainingOriginal: training.RawText,
		JobOriginal:      job.RawText,
		TokensA:          training.Tokens,
		TokensB:          job.Tokens,
		AllTerms:         stats.Terms,
		TFa:              stats.TFa,
		TFb:              stats.TFb,
		DF:               stats.DF,
		IDF:              stats.IDF,
		TFIDFa:           make(map[string]float64, len(stats.Terms)),
		TFIDFb:           make(map[string]float64, len(stats.Terms)),
		DotProduct:       dot,
		MagA:             magA,
		MagB:             magB,
		Similarity:       Cosine(vecA, vecB),
	}
	for i, t := range stats.Terms {
		tr.TFIDFa[t] = vecA[i]
		tr.TFIDFb[t] = vecB[i]
	}
	return tr
}

// ForStep returns the payload for one step of the six-step walkthrough:
// 1 tokens, 2 term frequency, 3 document frequency, 4 inverse document
// frequency, 5 TF-IDF weights, 6 cosine similarity.
func (t *TFIDFTrace) ForStep(step int) (map[string]interface{}, error) {
	out := map[string]interface{}{
		"training_name": t.TrainingName,
		"job_name":      t.JobName,
	}
	switch step {
	case 1:
		out["training_original"] = t.TrainingOriginal
		out["job_original"] = t.JobOriginal
		out["tokens1"] = t.TokensA
		out["tokens2"] = t.TokensB
		out["all_terms"] = t.AllTerms
	case 2:
		out["tf_d1"] = t.TFa
		out["tf_d2"] = t.TFb
		out["tokens1_count"] = len(t.TokensA)
		out["tokens2_count"] = len(t.TokensB)
	case 3:
		out["df_dict"] = t.DF
		out["tf_d1"] = t.TFa
		out["tf_d2"] = t.TFb
	case 4:
		out["idf_dict"] = t.IDF
		out["df_dict"] = t.DF
	case 5:
		out["tfidf_d1"] = t.TFIDFa
		out["tfidf_d2"] = t.TFIDFb
		out["tf_d1"] = t.TFa
		out["tf_d2"] = t.TFb
		out["idf_dict"] = t.IDF
	case 6:
		out["dot_product"] = t.DotProduct
		out["mag_d1"] = t.MagA
		out["mag_d2"] = t.MagB
		out["similarity"] = t.Similarity
	default:
		return nil, fmt.Errorf("tfidf trace: step must be 1..6, got %d", step)
	}
	return out, nil
}

// JaccardTrace is the five-step breakdown of one Jaccard computation:
// 1 token sets, 2 intersection, 3 union, 4 ratio, 5 everything.
type JaccardTrace struct {
	TrainingName string `json:"training_name"`
	JobName      string `json:"job_name"`

	TokensA []string `json:"tokens1"`
	TokensB []string `json:"tokens2"`

	SetA         []string `json:"set1"`
	SetB         []string `json:"set2"`
	Intersection []string `json:"intersection"`
	Union        []string `json:"union"`

	IntersectionCount int     `json:"intersection_count"`
	UnionCount        int     `json:"union_count"`
	Similarity        float64 `json:"jaccard_similarity"`
}

// TraceJaccard computes the Jaccard breakdown for one training document and
// one job document. Set listings are sorted so the walkthrough is stable.
func TraceJaccard(training, job *models.Document) *JaccardTrace {
	inter := make([]string, 0)
	union := make([]string, 0, len(training.TermSet)+len(job.TermSet))
	for t := range training.TermSet {
		union = append(union, t)
		if job.TermSet[t] {
			inter = append(inter, t)
		}
	}
	for t := range job.TermSet {
		if !training.TermSet[t] {
			union = append(union, t)
		}
	}
	sort.Strings(inter)
	sort.Strings(union)

	return &JaccardTrace{
		TrainingName:      training.Name,
		JobName:           job.Name,
		TokensA:           training.Tokens,
		TokensB:           job.Tokens,
		SetA:              sortedSet(training.TermSet),
		SetB:              sortedSet(job.TermSet),
		Intersection:      inter,
		Union:             union,
		IntersectionCount: len(inter),
		UnionCount:        len(union),
		Similarity:        Jaccard(training.TermSet, job.TermSet),
	}
}

// ForStep returns the payload for one step of the five-step walkthrough.
func (t *JaccardTrace) ForStep(step int) (map[string]interface{}, error) {
	out := map[string]interface{}{
		"training_name": t.TrainingName,
		"job_name":      t.JobName,
		"step":          step,
	}
	switch step {
	case 1:
		out["tokens1"] = t.TokensA
		out["tokens2"] = t.TokensB
		out["set1"] = t.SetA
		out["set2"] = t.SetB
		out["unique_count1"] = len(t.SetA)
		out["unique_count2"] = len(t.SetB)
	case 2:
		out["set1"] = t.SetA
		out["set2"] = t.SetB
		out["intersection"] = t.Intersection
		out["intersection_count"] = t.IntersectionCount
	case 3:
		out["set1"] = t.SetA
		out["set2"] = t.SetB
		out["union"] = t.Union
		out["union_count"] = t.UnionCount
	case 4:
		out["intersection_count"] = t.IntersectionCount
		out["union_count"] = t.UnionCount
		out["jaccard_similarity"] = t.Similarity
	case 5:
		out["tokens1"] = t.TokensA
		out["tokens2"] = t.TokensB
		out["set1"] = t.SetA
		out["set2"] = t.SetB
		out["intersection"] = t.Intersection
		out["union"] = t.Union
		out["intersection_count"] = t.IntersectionCount
		out["union_count"] = t.UnionCount
		out["jaccard_similarity"] = t.Similarity
	default:
		return nil, fmt.Errorf("jaccard trace: step must be 1..5, got %d", step)
	}
	return out, nil
}

func sortedSet(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for t := range set {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}
