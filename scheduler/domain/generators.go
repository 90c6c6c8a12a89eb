package domain

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/leanovate/gopter"

	"github.com/drydocklab/drydock/tests/testhelpers"
)

// Generates a random valid DriverDescription for the given application name.
func GenDescription(appName string) DriverDescription {
	return GenRandomDescription(appName, testhelpers.NewRand())
}

// Generates a random valid DriverDescription, using the supplied Rand.
func GenRandomDescription(appName string, rng *rand.Rand) DriverDescription {
	numArgs := rng.Intn(5)
	args := []string{}
	for i := 0; i < numArgs; i++ {
		args = append(args, fmt.Sprintf("arg%d:%s", i, testhelpers.GenRandomAlphaNumericString(rng)))
	}

	envVars := make(map[string]string)
	numEnvVars := rng.Intn(3)
	for i := 0; i < numEnvVars; i++ {
		envVars[fmt.Sprintf("ENV%d", i)] = testhelpers.GenRandomAlphaNumericString(rng)
	}

	return DriverDescription{
		AppName: appName,
		Command: Command{
			Main:        fmt.Sprintf("main:%s", testhelpers.GenRandomAlphaNumericString(rng)),
			Arguments:   args,
			Environment: envVars,
		},
		MemoryMB:   rng.Intn(4096) + 1,
		Cores:      rng.Intn(16) + 1,
		Supervise:  rng.Intn(2) == 0,
		Properties: map[string]string{"tag": testhelpers.GenRandomAlphaNumericString(rng)},
		SubmitTime: time.Now(),
	}
}

// Wrapper function that generates a DriverDescription for property based tests.
func GopterGenDescription() gopter.Gen {
	return func(genParams *gopter.GenParameters) *gopter.GenResult {
		appName := testhelpers.GenRandomAlphaNumericString(genParams.Rng)
		desc := GenRandomDescription(appName, genParams.Rng)
		return gopter.NewGenResult(desc, gopter.NoShrinker)
	}
}
