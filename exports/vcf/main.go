package vcf

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"civic/sdk/models"
	"civic/sdk/models/constants"
	"civic/sdk/models/constants/chromosome"
	referenceBuild "civic/sdk/models/constants/reference-build"
	"civic/sdk/models/constants/status"
	"civic/sdk/models/dtos"
	errorsDto "civic/sdk/models/dtos/errors"
	"civic/sdk/utils"
)

/*
	VCF export of gene variants with their clinical annotations packed
	into CSQ INFO entries, one entry per evidence item or assertion.

	The writer consumes resolved record views only ; assembling the
	annotation bundles (variant, gene, molecular profiles, evidence,
	assertions) is the caller's job. Invalid variants are skipped and
	enumerated in the summary, never aborting the file.
*/

const (
	supportedVersion = "4.2"
	referenceLine    = "ftp://ftp.ncbi.nih.gov/genbank/genomes/Eukaryotes/vertebrates_mammals/Homo_sapiens/GRCh37/special_requests/GRCh37-lite.fa.gz"
	aboutUrl         = "https://civicdb.org/help/evidence/overview"
)

// csqFields is the pipe-separated layout of one CSQ annotation, in
// order. Evidence rows leave the assertion columns empty and vice
// versa.
var csqFields = []string{
	"Allele",
	"Consequence",
	"SYMBOL",
	"Entrez Gene ID",
	"Feature_type",
	"Feature",
	"HGVSc",
	"HGVSp",
	"Variant Name",
	"Variant ID",
	"Variant Aliases",
	"Variant URL",
	"Molecular Profile Name",
	"Molecular Profile ID",
	"Molecular Profile Aliases",
	"Molecular Profile URL",
	"HGVS Expressions",
	"Allele Registry ID",
	"ClinVar IDs",
	"Molecular Profile Score",
	"Entity Type",
	"Entity ID",
	"Entity URL",
	"Entity Source",
	"Entity Variant Origin",
	"Entity Status",
	"Entity Significance",
	"Entity Direction",
	"Entity Disease",
	"Entity Therapies",
	"Entity Therapy Interaction Type",
	"Evidence Phenotypes",
	"Evidence Level",
	"Evidence Rating",
	"Assertion ACMG Codes",
	"Assertion AMP Category",
	"Assertion NCCN Guideline",
	"Assertion Regulatory Approval",
	"Assertion FDA Companion Test",
}

// ProfileAnnotation bundles one molecular profile of the exported
// variant with its status-filtered evidence and assertions.
type ProfileAnnotation struct {
	Profile    *models.MolecularProfile
	Evidence   []*models.Evidence
	Assertions []*models.Assertion
}

// AnnotatedVariant is the fully resolved input of the writer.
type AnnotatedVariant struct {
	Variant  *models.GeneVariant
	Gene     *models.Gene
	Profiles []ProfileAnnotation
}

type Writer struct {
	Version  string
	LinksUrl string

	// statuses an evidence item or assertion must carry for its CSQ
	// row to be emitted
	IncludeStatus []constants.RecordStatus
}

func NewWriter(linksUrl string) *Writer {
	return &Writer{
		Version:       supportedVersion,
		LinksUrl:      linksUrl,
		IncludeStatus: status.All(),
	}
}

// IsValidForVcf reports whether a variant can be represented as a
// VCF data line : primary coordinates present, no second coordinate
// set, and plain ACGTN alleles.
func IsValidForVcf(v *models.GeneVariant) error {
	coords := v.Coordinates
	if coords.HasSecondary() {
		return errorsDto.NewValidation("gene_variant", v.Id, "has a second set of coordinates")
	}
	if coords.Chromosome == "" || coords.Start == 0 ||
		(models.NormalizeBases(coords.ReferenceBases) == nil && models.NormalizeBases(coords.VariantBases) == nil) {
		return errorsDto.NewValidation("gene_variant", v.Id, "incomplete coordinates")
	}
	if !chromosome.IsValidHumanChromosome(coords.Chromosome) {
		return errorsDto.NewValidation("gene_variant", v.Id, fmt.Sprintf("unsupported chromosome %s", coords.Chromosome))
	}
	if !v.HasValidReferenceBases() {
		return errorsDto.NewValidation("gene_variant", v.Id, "unsupported reference base(s)")
	}
	if !v.HasValidVariantBases() {
		return errorsDto.NewValidation("gene_variant", v.Id, "unsupported variant base(s)")
	}
	if referenceBuild.CastToReferenceBuild(string(coords.ReferenceBuild)) != referenceBuild.GRCh37 {
		return errorsDto.NewValidation("gene_variant", v.Id, fmt.Sprintf("unsupported reference build %s", coords.ReferenceBuild))
	}
	return nil
}

// Write renders the annotated variants as one VCF document. Variants
// failing the validity check are recorded in the summary's skip map
// under their id ; the remaining records are sorted by chromosome
// then position and written out.
func (w *Writer) Write(out io.Writer, variants []AnnotatedVariant) (dtos.ExportSummaryDto, error) {
	summary := dtos.ExportSummaryDto{Skipped: map[int]string{}}

	var lines []dataLine
	for _, annotated := range variants {
		if err := IsValidForVcf(annotated.Variant); err != nil {
			summary.Skipped[annotated.Variant.Id] = err.Error()
			continue
		}
		line, ok := w.buildLine(annotated)
		if !ok {
			summary.Skipped[annotated.Variant.Id] = "variant coordinates cannot be anchored"
			continue
		}
		lines = append(lines, line)
	}

	sort.SliceStable(lines, func(i, j int) bool {
		if c := chromosome.Compare(lines[i].chrom, lines[j].chrom); c != 0 {
			return c < 0
		}
		return lines[i].pos < lines[j].pos
	})

	if err := w.writeHeader(out); err != nil {
		return summary, err
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(out, line.render()); err != nil {
			return summary, err
		}
		summary.Written++
	}
	return summary, nil
}

type dataLine struct {
	chrom string
	pos   int
	id    int
	ref   string
	alt   string
	info  []string
}

func (l dataLine) render() string {
	return strings.Join([]string{
		l.chrom,
		fmt.Sprint(l.pos),
		fmt.Sprint(l.id),
		l.ref,
		l.alt,
		".",
		".",
		strings.Join(l.info, ";"),
	}, "\t")
}

func (w *Writer) writeHeader(out io.Writer) error {
	lines := []string{
		fmt.Sprintf("##fileformat=VCFv%s", w.Version),
		fmt.Sprintf("##fileDate=%s", time.Now().Format("20060102")),
		fmt.Sprintf("##reference=%s", referenceLine),
	}
	for _, contig := range chromosome.ValidListOfHumanChromosomes() {
		lines = append(lines, fmt.Sprintf("##contig=<ID=%s>", contig))
	}
	lines = append(lines,
		fmt.Sprintf("##aboutURL=%s", aboutUrl),
		`##INFO=<ID=GN,Number=1,Type=String,Description="HGNC Gene Symbol">`,
		`##INFO=<ID=VT,Number=1,Type=String,Description="Variant Name">`,
		fmt.Sprintf(`##INFO=<ID=CSQ,Number=.,Type=String,Description="Clinical consequence annotations. Format: %s">`,
			strings.Join(csqFields, "|")),
		"#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO",
	)
	for _, line := range lines {
		if _, err := fmt.Fprintln(out, line); err != nil {
			return err
		}
	}
	return nil
}

func (w *Writer) buildLine(annotated AnnotatedVariant) (dataLine, bool) {
	v := annotated.Variant
	pos, ref, alt, ok := vcfCoordinates(v)
	if !ok {
		return dataLine{}, false
	}

	info := []string{
		fmt.Sprintf("GN=%s", csqEscape(annotated.Gene.Name)),
		fmt.Sprintf("VT=%s", csqEscape(v.SanitizedName())),
	}
	if csq := w.csq(annotated); len(csq) > 0 {
		info = append(info, fmt.Sprintf("CSQ=%s", strings.Join(csq, ",")))
	}

	return dataLine{
		chrom: v.Coordinates.Chromosome,
		pos:   pos,
		id:    v.Id,
		ref:   ref,
		alt:   alt,
		info:  info,
	}, true
}

// vcfCoordinates derives (POS, REF, ALT) from the variant's
// coordinates. Insertions and deletions are left-anchored on an N
// placeholder base ; resolving the literal anchor would need the
// reference genome, which the writer does not have.
func vcfCoordinates(v *models.GeneVariant) (int, string, string, bool) {
	ref := models.NormalizeBases(v.Coordinates.ReferenceBases)
	alt := models.NormalizeBases(v.Coordinates.VariantBases)

	switch {
	case v.IsInsertion():
		if v.Coordinates.RepresentativeTranscript == "" {
			return 0, "", "", false
		}
		refOut := "N"
		if ref != nil {
			refOut += *ref
		}
		return v.Coordinates.Start, refOut, "N" + deref(alt), true
	case v.IsDeletion():
		if v.Coordinates.RepresentativeTranscript == "" {
			return 0, "", "", false
		}
		altOut := "N"
		if alt != nil {
			altOut += *alt
		}
		return v.Coordinates.Start - 1, "N" + deref(ref), altOut, true
	default:
		if ref == nil || alt == nil {
			return 0, "", "", false
		}
		return v.Coordinates.Start, *ref, *alt, true
	}
}

// csqAlt is the allele column of a CSQ row ; deletions collapse to
// the conventional "-" marker.
func csqAlt(v *models.GeneVariant) (string, bool) {
	switch {
	case v.IsInsertion():
		if v.Coordinates.RepresentativeTranscript == "" {
			return "", false
		}
		return deref(models.NormalizeBases(v.Coordinates.VariantBases)), true
	case v.IsDeletion():
		if v.Coordinates.RepresentativeTranscript == "" {
			return "", false
		}
		return "-", true
	default:
		return deref(models.NormalizeBases(v.Coordinates.VariantBases)), true
	}
}

func (w *Writer) csq(annotated AnnotatedVariant) []string {
	alt, ok := csqAlt(annotated.Variant)
	if !ok {
		return nil
	}

	var rows []string
	for _, profile := range annotated.Profiles {
		for _, evidence := range profile.Evidence {
			if !status.Contains(w.IncludeStatus, evidence.Status) {
				continue
			}
			rows = append(rows, w.csqEvidenceRow(alt, annotated, profile, evidence))
		}
		for _, assertion := range profile.Assertions {
			if !status.Contains(w.IncludeStatus, assertion.Status) {
				continue
			}
			rows = append(rows, w.csqAssertionRow(alt, annotated, profile, assertion))
		}
	}
	return rows
}

func (w *Writer) csqEvidenceRow(alt string, annotated AnnotatedVariant, profile ProfileAnnotation, evidence *models.Evidence) string {
	source := ""
	if evidence.Source != nil {
		source = fmt.Sprintf("%s (%s)", evidence.Source.CitationId, evidence.Source.SourceType)
	}
	disease := ""
	if evidence.Disease != nil {
		disease = evidence.Disease.Name
	}
	var phenotypes []string
	for i := range evidence.Phenotypes {
		phenotypes = append(phenotypes, evidence.Phenotypes[i].String())
	}

	row := w.csqSharedColumns(alt, annotated, profile)
	row = append(row,
		"evidence",
		fmt.Sprint(evidence.Id),
		fmt.Sprintf("%s/evidence/%d", w.LinksUrl, evidence.Id),
		source,
		evidence.VariantOrigin,
		string(evidence.Status),
		evidence.Significance,
		evidence.EvidenceDirection,
		disease,
		joinTherapies(evidence.Therapies),
		evidence.TherapyInteractionType,
		utils.JoinNonEmpty(phenotypes, "&"),
		evidence.EvidenceLevel,
		fmt.Sprint(evidence.Rating),
		"", "", "", "", "",
	)
	return renderCsqRow(row)
}

func (w *Writer) csqAssertionRow(alt string, annotated AnnotatedVariant, profile ProfileAnnotation, assertion *models.Assertion) string {
	disease := ""
	if assertion.Disease != nil {
		disease = assertion.Disease.String()
	}
	var acmg []string
	for _, code := range assertion.AcmgCodes {
		acmg = append(acmg, code.Code)
	}

	row := w.csqSharedColumns(alt, annotated, profile)
	row = append(row,
		"assertion",
		fmt.Sprint(assertion.Id),
		fmt.Sprintf("%s/assertions/%d", w.LinksUrl, assertion.Id),
		"",
		assertion.VariantOrigin,
		string(assertion.Status),
		assertion.Significance,
		assertion.AssertionDirection,
		disease,
		joinTherapies(assertion.Therapies),
		assertion.TherapyInteractionType,
		"", "", "",
		utils.JoinNonEmpty(acmg, "&"),
		assertion.AmpLevel,
		assertion.FormatNccnGuideline(),
		fmt.Sprint(assertion.RegulatoryApproval),
		fmt.Sprint(assertion.FdaCompanionTest),
	)
	return renderCsqRow(row)
}

// csqSharedColumns renders the variant and molecular profile columns
// common to evidence and assertion rows.
func (w *Writer) csqSharedColumns(alt string, annotated AnnotatedVariant, profile ProfileAnnotation) []string {
	v := annotated.Variant

	var types []string
	for i := range v.VariantTypes {
		types = append(types, v.VariantTypes[i].Name)
	}

	return []string{
		alt,
		strings.Join(types, "&"),
		annotated.Gene.Name,
		fmt.Sprint(annotated.Gene.EntrezId),
		"transcript",
		v.Coordinates.RepresentativeTranscript,
		v.HgvsC(),
		v.HgvsP(),
		v.SanitizedName(),
		fmt.Sprint(v.Id),
		strings.Join(v.VariantAliases, "&"),
		fmt.Sprintf("%s/variants/%d", w.LinksUrl, v.Id),
		profile.Profile.Name,
		fmt.Sprint(profile.Profile.Id),
		strings.Join(profile.Profile.Aliases, "&"),
		fmt.Sprintf("%s/molecular-profiles/%d", w.LinksUrl, profile.Profile.Id),
		strings.Join(v.HgvsExpressions, "&"),
		v.AlleleRegistryId,
		strings.Join(v.ClinvarEntries, "&"),
		fmt.Sprint(profile.Profile.MolecularProfileScore),
	}
}

func renderCsqRow(columns []string) string {
	for i, c := range columns {
		columns[i] = csqEscape(c)
	}
	return strings.Join(columns, "|")
}

func joinTherapies(therapies []models.Therapy) string {
	var parts []string
	for i := range therapies {
		parts = append(parts, therapies[i].String())
	}
	return utils.JoinNonEmpty(parts, "&")
}

var csqEscaper = strings.NewReplacer(
	"%", "%25",
	";", "%3B",
	"=", "%3D",
	",", "%2C",
	" ", "%20",
	"\t", "%09",
	"\n", "%0A",
)

// csqEscape percent-encodes the characters VCF reserves inside INFO
// values.
func csqEscape(value string) string {
	return csqEscaper.Replace(value)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
