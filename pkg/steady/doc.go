// Package steady measures how stable a text classifier's predictions are
// under small, meaning-preserving perturbations of its input.
//
// Quick start:
//
//	ev, err := steady.New(cls,
//	    steady.WithLabels("World", "Sports", "Business", "Sci/Tech"),
//	    steady.WithVariants(3),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	res, _ := ev.Evaluate(ctx, examples)
//	fmt.Println(res.Summary.FlipCount, *res.Summary.BaseAccuracy)
//
// Every example becomes a group: the unperturbed base record plus N
// perturbed variants. The classifier scores every record and the Summary
// reports flip rate, base vs overall accuracy, degradation and confidence
// separation. Results are reproducible: the same examples and options
// always produce the same records.
//
// An Evaluator is safe for concurrent use.
package steady
