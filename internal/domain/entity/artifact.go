package entity

// Artifact is one file of a generation's archive.
type Artifact struct {
	GenerationID string `json:"generation_id"`
	Name         string `json:"name"`
	Content      string `json:"content"`
	Kind         string `json:"kind"` // schema, routes, erd, explanation
}

// SchemaFileName is the archive file name for a format's schema.
func SchemaFileName(f OutputFormat) string {
	switch f {
	case OutputFormatPrisma:
		return "schema.prisma"
	case OutputFormatSQL:
		return "schema.sql"
	case OutputFormatMongoose:
		return "schema.js"
	case OutputFormatFirebase:
		return "firestore.json"
	}
	return "schema.txt"
}

// ArtifactsFor splits a response into archive files.
func ArtifactsFor(generationID string, format OutputFormat, resp GenerationResponse, diagram string) []*Artifact {
	files := []*Artifact{
		{GenerationID: generationID, Name: SchemaFileName(format), Content: resp.Schema, Kind: "schema"},
	}
	if resp.APIRoutes != "" {
		files = append(files, &Artifact{GenerationID: generationID, Name: "routes.txt", Content: resp.APIRoutes, Kind: "routes"})
	}
	if diagram != "" {
		files = append(files, &Artifact{GenerationID: generationID, Name: "erd.mmd", Content: diagram, Kind: "erd"})
	}
	files = append(files, &Artifact{GenerationID: generationID, Name: "explanation.md", Content: resp.Explanation, Kind: "explanation"})
	return files
}
