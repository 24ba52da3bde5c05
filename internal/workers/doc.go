/*
Package workers provides utilities for determining worker pool sizes in
containerized environments.

runtime.NumCPU() reports the host machine's CPU count even when a container
is limited to a fraction of it. Go 1.19+ sets GOMAXPROCS from the cgroup
CPU limit, so this package derives worker counts from GOMAXPROCS instead.

The service uses these helpers to size the pools that warm CDN image
variants and run batch catalog mutations:

	// I/O-bound warming requests (2 workers per available CPU, max 8)
	n := workers.ForIO(8)

Operators can override the calculation with the WARM_WORKERS environment
variable.
*/
package workers
