package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCronService_RunReloadNow(t *testing.T) {
	catalog := NewRouteCatalog(quietLogger())
	cronService := NewCronService(catalog, NewStaticRouteSource("fixture", fixtureRoutes()), quietLogger())

	cronService.RunReloadNow()
	assert.Equal(t, int64(1), catalog.Version())
	assert.Len(t, catalog.Routes(), 4)
}

func TestCronService_FailedReloadKeepsCatalog(t *testing.T) {
	catalog := loadedCatalog(t)
	cronService := NewCronService(catalog, failingSource{}, quietLogger())

	cronService.RunReloadNow()
	assert.Equal(t, int64(1), catalog.Version())
}

func TestCronService_Start(t *testing.T) {
	catalog := NewRouteCatalog(quietLogger())
	cronService := NewCronService(catalog, NewStaticRouteSource("fixture", fixtureRoutes()), quietLogger())

	require.NoError(t, cronService.Start("0 0 3 * * *"))
	defer cronService.Stop()

	status := cronService.GetJobStatus()
	assert.Equal(t, 1, status["job_count"])
	assert.Equal(t, true, status["running"])
}

func TestCronService_InvalidSpec(t *testing.T) {
	cronService := NewCronService(NewRouteCatalog(quietLogger()), failingSource{}, quietLogger())
	assert.Error(t, cronService.Start("every day"))
}

func TestCronService_EmptySpecSchedulesNothing(t *testing.T) {
	cronService := NewCronService(NewRouteCatalog(quietLogger()), failingSource{}, quietLogger())
	require.NoError(t, cronService.Start(""))
	defer cronService.Stop()
	assert.Equal(t, 0, cronService.GetJobStatus()["job_count"])
}
