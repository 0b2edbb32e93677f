// Package genetic trains small dense feedforward neural networks with a
// genetic algorithm.
//
// A population of networks is scored by a caller supplied function and
// evolved one generation at a time. The two fittest individuals are kept as
// elites across generations, the rest of the population is rebuilt by
// per-parameter crossover and mutation of those elites, and an optional
// number of fresh random networks keeps diversity up.
//
// Basic usage:
//
//	// Load configuration
//	config, err := genetic.LoadConfig("path/to/config.ini")
//	if err != nil {
//		log.Fatalf("Error loading config: %v", err)
//	}
//
//	// Create the engine
//	engine, err := genetic.NewEngine(config, random.New(42))
//	if err != nil {
//		log.Fatalf("Error creating engine: %v", err)
//	}
//
//	// Run for 100 generations with your scoring function
//	for i := 0; i < 100; i++ {
//		if err := engine.NextGen(score); err != nil {
//			log.Fatalf("Error running generation: %v", err)
//		}
//	}
//
//	best, _ := engine.IDByRank(0)
package genetic
