package search

// Collector interface for metrics
type Collector interface {
	Query(engine string, err error)
	Operation(engine, operation string)
}

// NoOpCollector implementation
type NoOpCollector struct{}

func (NoOpCollector) Query(string, error)      {}
func (NoOpCollector) Operation(string, string) {}
