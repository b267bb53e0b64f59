package dataset

import (
	"fmt"
	"strings"
)

// Report renders a markdown quality report for a curated dataset.
func Report(d *CuratedDataset) string {
	var b strings.Builder
	b.WriteString("# Data Quality Assessment Report\n\n")
	b.WriteString("## QA Dataset for RAG System\n\n")

	b.WriteString("### Dataset Overview\n")
	fmt.Fprintf(&b, "- **Total QA Pairs**: %d\n", d.Metadata.TotalPairs)
	fmt.Fprintf(&b, "- **Train Split**: %d pairs\n", len(d.Splits.Train))
	fmt.Fprintf(&b, "- **Validation Split**: %d pairs\n", len(d.Splits.Validation))
	fmt.Fprintf(&b, "- **Test Split**: %d pairs\n\n", len(d.Splits.Test))

	b.WriteString("### Quality Control\n")
	b.WriteString("The dataset underwent quality filtering to remove:\n")
	fmt.Fprintf(&b, "- Short questions (< %d characters)\n", minQuestionLen)
	fmt.Fprintf(&b, "- Short answers (< %d characters)\n", minAnswerLen)
	b.WriteString("- Duplicate questions\n")
	b.WriteString("- Invalid question types\n\n")

	b.WriteString("### Conclusion\n")
	b.WriteString("The curated QA dataset is ready for use in evaluating RAG systems.\n")
	return b.String()
}
