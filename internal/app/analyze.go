package app

import "context"

// Analyze runs a resolution without writing anything.
func (s Service) Analyze(ctx context.Context, req AnalyzeRequest) (AnalyzeResult, error) {
	ctx = withLogger(ctx)
	run, err := s.runPipeline(ctx, req.Options)
	if err != nil {
		return AnalyzeResult{}, err
	}
	return AnalyzeResult{Report: run.Report}, nil
}
