package generator

import (
	"schemagen/internal/domain/entity"
	"schemagen/internal/domain/erd"
)

const prismaSchema = `generator client {
  provider = "prisma-client-js"
}

datasource db {
  provider = "postgresql"
  url      = env("DATABASE_URL")
}

model User {
  id        Int      @id @default(autoincrement())
  email     String   @unique
  name      String?
  posts     Post[]
  createdAt DateTime @default(now())
  updatedAt DateTime @updatedAt
}

model Post {
  id        Int      @id @default(autoincrement())
  title     String
  content   String?
  published Boolean  @default(false)
  author    User     @relation(fields: [authorId], references: [id])
  authorId  Int
  createdAt DateTime @default(now())
  updatedAt DateTime @updatedAt
}
`

const sqlSchema = `CREATE TABLE users (
  id SERIAL PRIMARY KEY,
  email VARCHAR(255) NOT NULL UNIQUE,
  name VARCHAR(255),
  created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
  updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE posts (
  id SERIAL PRIMARY KEY,
  title VARCHAR(255) NOT NULL,
  content TEXT,
  published BOOLEAN NOT NULL DEFAULT FALSE,
  author_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
  created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
  updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX idx_posts_author_id ON posts(author_id);
`

const mongooseSchema = `const mongoose = require('mongoose');

const userSchema = new mongoose.Schema({
  email: { type: String, required: true, unique: true },
  name: { type: String },
  posts: [{ type: mongoose.Schema.Types.ObjectId, ref: 'Post' }],
}, { timestamps: true });

const postSchema = new mongoose.Schema({
  title: { type: String, required: true },
  content: { type: String },
  published: { type: Boolean, default: false },
  author: { type: mongoose.Schema.Types.ObjectId, ref: 'User', required: true },
}, { timestamps: true });

const User = mongoose.model('User', userSchema);
const Post = mongoose.model('Post', postSchema);

module.exports = { User, Post };
`

const firebaseSchema = `{
  "users": {
    "$userId": {
      "email": "string",
      "name": "string",
      "createdAt": "timestamp",
      "updatedAt": "timestamp"
    }
  },
  "posts": {
    "$postId": {
      "title": "string",
      "content": "string",
      "published": "boolean",
      "authorId": "string (ref: users/$userId)",
      "createdAt": "timestamp",
      "updatedAt": "timestamp"
    }
  }
}
`

// cannedSchemas is the fixed format table. Every entity.OutputFormat has an
// entry.
var cannedSchemas = map[entity.OutputFormat]string{
	entity.OutputFormatPrisma:   prismaSchema,
	entity.OutputFormatSQL:      sqlSchema,
	entity.OutputFormatMongoose: mongooseSchema,
	entity.OutputFormatFirebase: firebaseSchema,
}

// CannedSchema returns the schema text served for format.
func CannedSchema(format entity.OutputFormat) (string, bool) {
	s, ok := cannedSchemas[format]
	return s, ok
}

const CannedRoutes = `GET    /api/users          - List all users
GET    /api/users/:id      - Get a single user
POST   /api/users          - Create a new user
PUT    /api/users/:id      - Update a user
DELETE /api/users/:id      - Delete a user

GET    /api/posts          - List all posts
GET    /api/posts/:id      - Get a single post
POST   /api/posts          - Create a new post
PUT    /api/posts/:id      - Update a post
DELETE /api/posts/:id      - Delete a post
GET    /api/users/:id/posts - List posts written by a user
`

const CannedExplanation = `The submitted input describes a blog-style application with two core entities: ` +
	`users and the posts they write. Each user is identified by a unique email address and may ` +
	`author many posts, while every post belongs to exactly one author. The schema models this as ` +
	`a one-to-many relationship, adds created and updated timestamps to both entities, and tracks ` +
	`whether a post has been published. The suggested API routes expose standard CRUD operations ` +
	`for both resources plus a nested route for listing a user's posts.`

// blogModel is the ER model behind every diagram payload.
var blogModel = erd.Diagram{
	Entities: []erd.Entity{
		{Name: "USER", Attributes: []erd.Attribute{
			{Type: "int", Name: "id", Key: erd.KeyPrimary},
			{Type: "string", Name: "email", Key: erd.KeyUnique},
			{Type: "string", Name: "name"},
			{Type: "datetime", Name: "createdAt"},
			{Type: "datetime", Name: "updatedAt"},
		}},
		{Name: "POST", Attributes: []erd.Attribute{
			{Type: "int", Name: "id", Key: erd.KeyPrimary},
			{Type: "string", Name: "title"},
			{Type: "string", Name: "content"},
			{Type: "boolean", Name: "published"},
			{Type: "int", Name: "authorId", Key: erd.KeyForeign},
			{Type: "datetime", Name: "createdAt"},
			{Type: "datetime", Name: "updatedAt"},
		}},
	},
	Relationships: []erd.Relationship{
		{Left: "USER", Right: "POST", Cardinality: erd.OneToMany, Label: "writes"},
	},
}

// CannedDiagram returns the diagram source encoded into erdImageUrl.
func CannedDiagram() string {
	return blogModel.Render()
}
