package generator

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"schemagen/internal/domain/entity"
	"schemagen/internal/domain/erd"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func request(format entity.OutputFormat, routes, diagram bool) entity.GenerationRequest {
	return entity.GenerationRequest{
		InputCode: "export const Profile = () => <div>{user.name}</div>",
		InputType: entity.InputKindComponent,
		Options: entity.GenerationOptions{
			OutputFormat: format,
			DatabaseType: entity.TargetDatabasePostgreSQL,
			SuggestAPI:   routes,
			GenerateERD:  diagram,
		},
	}
}

func TestGenerate_SelectsSchemaByFormat(t *testing.T) {
	g := NewCannedGenerator(0, nil)

	want := map[entity.OutputFormat]string{
		entity.OutputFormatPrisma:   "model User {",
		entity.OutputFormatSQL:      "CREATE TABLE users",
		entity.OutputFormatMongoose: "mongoose.Schema",
		entity.OutputFormatFirebase: `"users"`,
	}
	for _, format := range entity.OutputFormats() {
		t.Run(string(format), func(t *testing.T) {
			resp, err := g.Generate(context.Background(), request(format, false, false))
			require.NoError(t, err)

			expected, ok := CannedSchema(format)
			require.True(t, ok)
			assert.Equal(t, expected, resp.Schema)
			assert.Contains(t, resp.Schema, want[format])
			assert.Equal(t, CannedExplanation, resp.Explanation)
		})
	}
}

func TestGenerate_IgnoresInputAndDatabase(t *testing.T) {
	g := NewCannedGenerator(0, nil)

	a := request(entity.OutputFormatMongoose, true, true)
	b := a
	b.InputCode = `{"fields":["sku","price"]}`
	b.InputType = entity.InputKindFields
	b.Options.DatabaseType = entity.TargetDatabaseMySQL

	ra, err := g.Generate(context.Background(), a)
	require.NoError(t, err)
	rb, err := g.Generate(context.Background(), b)
	require.NoError(t, err)
	assert.Equal(t, ra, rb)
}

func TestGenerate_OptionalSections(t *testing.T) {
	g := NewCannedGenerator(0, nil)

	resp, err := g.Generate(context.Background(), request(entity.OutputFormatSQL, false, false))
	require.NoError(t, err)
	assert.Empty(t, resp.APIRoutes)
	assert.Empty(t, resp.ERDImageURL)

	resp, err = g.Generate(context.Background(), request(entity.OutputFormatSQL, true, true))
	require.NoError(t, err)
	assert.Equal(t, CannedRoutes, resp.APIRoutes)

	src, err := erd.DecodeDataURI(resp.ERDImageURL)
	require.NoError(t, err)
	d, err := erd.Parse(src)
	require.NoError(t, err)
	require.NotEmpty(t, d.Entities)
	require.NotEmpty(t, d.Relationships)

	_, hasUser := d.Entity("USER")
	_, hasPost := d.Entity("POST")
	assert.True(t, hasUser)
	assert.True(t, hasPost)
	assert.Equal(t, "USER", d.Relationships[0].Left)
	assert.Equal(t, "POST", d.Relationships[0].Right)
}

func TestGenerate_Idempotent(t *testing.T) {
	g := NewCannedGenerator(0, nil)
	req := request(entity.OutputFormatFirebase, true, true)

	first, err := g.Generate(context.Background(), req)
	require.NoError(t, err)
	second, err := g.Generate(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestGenerate_EmptyFormatUsesDefault(t *testing.T) {
	g := NewCannedGenerator(0, nil)
	resp, err := g.Generate(context.Background(), request("", false, false))
	require.NoError(t, err)
	assert.Equal(t, prismaSchema, resp.Schema)
}

func TestGenerate_UnknownFormat(t *testing.T) {
	g := NewCannedGenerator(0, nil)
	_, err := g.Generate(context.Background(), request("graphql", false, false))
	require.Error(t, err)
	assert.True(t, entity.IsValidationError(err))
}

func TestGenerate_WaitsForDelay(t *testing.T) {
	delay := 80 * time.Millisecond
	g := NewCannedGenerator(delay, nil)

	start := time.Now()
	_, err := g.Generate(context.Background(), request(entity.OutputFormatPrisma, false, false))
	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), delay)
}

func TestGenerate_DelaysDoNotSerialize(t *testing.T) {
	delay := 150 * time.Millisecond
	g := NewCannedGenerator(delay, nil)

	const n = 8
	var wg sync.WaitGroup
	start := time.Now()
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := g.Generate(context.Background(), request(entity.OutputFormatSQL, true, false))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Less(t, time.Since(start), delay*n/2)
}

func TestGenerate_CancelledDuringDelay(t *testing.T) {
	g := NewCannedGenerator(time.Minute, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := g.Generate(ctx, request(entity.OutputFormatPrisma, false, false))
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestDefaultDelay(t *testing.T) {
	assert.Equal(t, 2000*time.Millisecond, DefaultDelay)
}
