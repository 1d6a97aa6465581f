// Package primeos provides the public API for the PrimeOS virtual
// machine: a stack machine whose program memory is encoded entirely as
// prime factorizations (the UOR codec), running a small self-modifying
// goal-seeker program that adapts its own instructions toward a target
// chosen by a Teacher.
//
// # Quick start
//
// Hosting a single interactive session:
//
//	c, err := primeos.NewController(primeos.DefaultConfig(), 1)
//	if err != nil {
//		log.Fatal(err)
//	}
//	snap, err := c.Init()
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	for !snap.Halted {
//		snap, err = c.Step()
//		if err != nil {
//			log.Fatal(err)
//		}
//		if snap.NeedsInput {
//			snap, err = c.ProvideInput(nil) // let the Teacher decide
//			if err != nil {
//				log.Fatal(err)
//			}
//		}
//	}
//
// # Architecture
//
//   - pkg/primeos/: public API (this package)
//   - internal/primeos/: private implementation (prime table, codec,
//     VM core, Teacher, goal-seeker program, interaction controller,
//     multi-session registry)
//
// Implementation details under internal/ can change without breaking
// callers of this package.
package primeos
