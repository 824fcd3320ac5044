package convert

import "sync"

// parallelFor fans fn out across nbJobs goroutines and joins before
// returning. Jobs are identified by index; fn must only write to ranges
// it derives from its own job index.
func parallelFor(nbJobs int, fn func(job, nbJobs int)) {
	if nbJobs <= 1 {
		fn(0, 1)
		return
	}

	var wg sync.WaitGroup
	wg.Add(nbJobs)
	for job := 0; job < nbJobs; job++ {
		go func(job int) {
			defer wg.Done()
			fn(job, nbJobs)
		}(job)
	}
	wg.Wait()
}
