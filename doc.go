// Package spellix normalizes words with Ispell and Hunspell dictionaries:
// it reduces inflected tokens to their dictionary base forms and splits
// compound words into their stems.
//
// A dictionary is compiled from a word file and an affix file into a single
// contiguous, position-independent image. The image is immutable and can be
// persisted, memory-mapped, or placed in shared memory; package cache builds
// each dictionary at most once and shares the image between consumers under
// a configurable byte budget.
//
// Basic usage:
//
//	d, err := spellix.New(ctx,
//		spellix.WithDictFile("en_us.dict"),
//		spellix.WithAffFile("en_us.affix"),
//	)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer d.Close()
//
//	for _, lx := range d.Normalize("unbelievable") {
//		fmt.Println(lx.Text)
//	}
package spellix
