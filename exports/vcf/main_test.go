package vcf

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"civic/sdk/models"
	errorsDto "civic/sdk/models/dtos/errors"
)

func snvVariant() *models.GeneVariant {
	return &models.GeneVariant{
		Id:   10,
		Name: "V600E",
		Coordinates: models.Coordinates{
			ReferenceBuild:           "GRCh37",
			Chromosome:               "7",
			Start:                    140453136,
			Stop:                     140453136,
			ReferenceBases:           models.StrPtr("A"),
			VariantBases:             models.StrPtr("T"),
			RepresentativeTranscript: "ENST00000288602.6",
		},
		HgvsExpressions: []string{"ENST00000288602.6:c.1799T>A", "ENST00000288602.6:p.Val600Glu"},
	}
}

func TestIsValidForVcf(t *testing.T) {
	t.Run("a plain substitution is valid", func(t *testing.T) {
		assert.NoError(t, IsValidForVcf(snvVariant()))
	})

	t.Run("a second coordinate set is not representable", func(t *testing.T) {
		v := snvVariant()
		v.Coordinates.Chromosome2 = "4"
		v.Coordinates.Start2 = 100
		v.Coordinates.Stop2 = 200
		assert.True(t, errorsDto.IsValidation(IsValidForVcf(v)))
	})

	t.Run("missing coordinates are rejected", func(t *testing.T) {
		v := snvVariant()
		v.Coordinates.Chromosome = ""
		assert.True(t, errorsDto.IsValidation(IsValidForVcf(v)))
	})

	t.Run("non-human chromosome labels are rejected", func(t *testing.T) {
		v := snvVariant()
		v.Coordinates.Chromosome = "99"
		assert.True(t, errorsDto.IsValidation(IsValidForVcf(v)))
	})

	t.Run("alleles outside ACGTN are rejected", func(t *testing.T) {
		v := snvVariant()
		v.Coordinates.VariantBases = models.StrPtr("ITD")
		assert.True(t, errorsDto.IsValidation(IsValidForVcf(v)))
	})

	t.Run("non-GRCh37 builds are rejected", func(t *testing.T) {
		v := snvVariant()
		v.Coordinates.ReferenceBuild = "GRCh38"
		assert.True(t, errorsDto.IsValidation(IsValidForVcf(v)))
	})
}

func TestWrite(t *testing.T) {
	writer := NewWriter("https://civicdb.org/links")

	chr12 := snvVariant()
	chr12.Id = 14
	chr12.Name = "Y64A"
	chr12.Coordinates.Chromosome = "12"
	chr12.Coordinates.Start = 25378561
	chr12.Coordinates.Stop = 25378561

	invalid := snvVariant()
	invalid.Id = 99
	invalid.Coordinates.Chromosome = ""

	annotated := []AnnotatedVariant{
		{Variant: chr12, Gene: &models.Gene{Name: "KRAS", EntrezId: 3845}},
		{Variant: snvVariant(), Gene: &models.Gene{Name: "BRAF", EntrezId: 673}},
		{Variant: invalid, Gene: &models.Gene{Name: "BRAF", EntrezId: 673}},
	}

	var out bytes.Buffer
	summary, err := writer.Write(&out, annotated)
	assert.NoError(t, err)
	assert.Equal(t, 2, summary.Written)
	assert.Len(t, summary.Skipped, 1)
	assert.Contains(t, summary.Skipped[99], "incomplete coordinates")

	lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")

	t.Run("header precedes the data lines", func(t *testing.T) {
		assert.Equal(t, "##fileformat=VCFv4.2", lines[0])
		assert.Contains(t, out.String(), "##contig=<ID=7>")
		assert.Contains(t, out.String(), "##contig=<ID=X>")
		assert.Contains(t, out.String(), `##INFO=<ID=CSQ,`)
		assert.Contains(t, out.String(), "#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO")
	})

	t.Run("records sort numerically by chromosome then position", func(t *testing.T) {
		var dataLines []string
		for _, line := range lines {
			if !strings.HasPrefix(line, "#") {
				dataLines = append(dataLines, line)
			}
		}
		assert.Len(t, dataLines, 2)
		assert.True(t, strings.HasPrefix(dataLines[0], "7\t140453136\t10\tA\tT"))
		assert.True(t, strings.HasPrefix(dataLines[1], "12\t25378561\t14\tA\tT"))
	})

	t.Run("gene and variant name ride along as INFO fields", func(t *testing.T) {
		assert.Contains(t, out.String(), "GN=BRAF;VT=V600E")
	})
}

func TestCsqAnnotations(t *testing.T) {
	writer := NewWriter("https://civicdb.org/links")

	annotated := AnnotatedVariant{
		Variant: snvVariant(),
		Gene:    &models.Gene{Name: "BRAF", EntrezId: 673},
		Profiles: []ProfileAnnotation{{
			Profile: &models.MolecularProfile{Id: 100, Name: "BRAF V600E"},
			Evidence: []*models.Evidence{{
				Id:            200,
				Status:        "accepted",
				EvidenceLevel: "A",
				Significance:  "SENSITIVITYRESPONSE",
				Disease:       &models.Disease{Name: "Melanoma"},
			}},
			Assertions: []*models.Assertion{{
				Id:           300,
				Status:       "accepted",
				Significance: "SENSITIVITYRESPONSE",
			}},
		}},
	}

	var out bytes.Buffer
	_, err := writer.Write(&out, []AnnotatedVariant{annotated})
	assert.NoError(t, err)

	t.Run("one row per evidence item and assertion", func(t *testing.T) {
		assert.Contains(t, out.String(), "CSQ=")
		csqValue := extractInfoField(t, out.String(), "CSQ")
		rows := strings.Split(csqValue, ",")
		assert.Len(t, rows, 2)
		assert.Contains(t, rows[0], "|evidence|200|")
		assert.Contains(t, rows[1], "|assertion|300|")
	})

	t.Run("reserved characters are percent-encoded", func(t *testing.T) {
		csqValue := extractInfoField(t, out.String(), "CSQ")
		assert.Contains(t, csqValue, "BRAF%20V600E")
		assert.NotContains(t, csqValue, "BRAF V600E")
	})

	t.Run("every row carries the full column count", func(t *testing.T) {
		csqValue := extractInfoField(t, out.String(), "CSQ")
		for _, row := range strings.Split(csqValue, ",") {
			assert.Len(t, strings.Split(row, "|"), len(csqFields))
		}
	})
}

func TestSanitizedNameInOutput(t *testing.T) {
	writer := NewWriter("https://civicdb.org/links")

	v := snvVariant()
	v.Name = "V600="

	var out bytes.Buffer
	_, err := writer.Write(&out, []AnnotatedVariant{{Variant: v, Gene: &models.Gene{Name: "BRAF"}}})
	assert.NoError(t, err)

	// synonymous names rewrite to the explicit form
	assert.Contains(t, out.String(), "VT=V600V")
}

// extractInfoField pulls one key's value out of the INFO column of
// the first data line.
func extractInfoField(t *testing.T, document string, key string) string {
	t.Helper()
	for _, line := range strings.Split(document, "\n") {
		if strings.HasPrefix(line, "#") || line == "" {
			continue
		}
		columns := strings.Split(line, "\t")
		for _, field := range strings.Split(columns[len(columns)-1], ";") {
			if strings.HasPrefix(field, key+"=") {
				return strings.TrimPrefix(field, key+"=")
			}
		}
	}
	t.Fatalf("INFO field %s not found", key)
	return ""
}
