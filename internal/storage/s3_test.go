package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

type fakeS3 struct {
	objects      map[string][]byte
	contentTypes map[string]string
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: map[string][]byte{}, contentTypes: map[string]string{}}
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	b, ok := f.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)]
	if !ok {
		return nil, errors.New("NoSuchKey")
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(b))}, nil
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	b, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	key := aws.ToString(in.Bucket) + "/" + aws.ToString(in.Key)
	f.objects[key] = b
	f.contentTypes[key] = aws.ToString(in.ContentType)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	delete(f.objects, aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func TestDocumentKey(t *testing.T) {
	tests := []struct {
		id, name, want string
	}{
		{"abc", "article.json", "documents/abc.json"},
		{"abc", "mentions.txt", "documents/abc.txt"},
		{"abc", "noext", "documents/abc"},
	}
	for _, tt := range tests {
		if got := DocumentKey(tt.id, tt.name); got != tt.want {
			t.Errorf("DocumentKey(%q, %q) = %q, want %q", tt.id, tt.name, got, tt.want)
		}
	}
}

func TestPutGetDelete(t *testing.T) {
	t.Setenv("AWS_BUCKET", "docs")
	ctx := context.Background()
	client := newFakeS3()

	key := DocumentKey("d1", "a.json")
	if err := PutFile(ctx, client, key, strings.NewReader(`{"sentences":[]}`)); err != nil {
		t.Fatalf("PutFile: %v", err)
	}
	if ct := client.contentTypes["docs/"+key]; ct != "application/json" {
		t.Fatalf("content type = %q", ct)
	}

	got, err := GetFile(ctx, client, key)
	if err != nil {
		t.Fatalf("GetFile: %v", err)
	}
	if string(got) != `{"sentences":[]}` {
		t.Fatalf("GetFile = %q", got)
	}

	if err := DeleteFile(ctx, client, key); err != nil {
		t.Fatalf("DeleteFile: %v", err)
	}
	if _, err := GetFile(ctx, client, key); err == nil {
		t.Fatal("expected error after delete")
	}
}

func TestPutFile_UnknownExtension(t *testing.T) {
	t.Setenv("AWS_BUCKET", "docs")
	client := newFakeS3()
	if err := PutFile(context.Background(), client, "documents/x", strings.NewReader("a")); err != nil {
		t.Fatal(err)
	}
	if ct := client.contentTypes["docs/documents/x"]; ct != "application/octet-stream" {
		t.Fatalf("content type = %q", ct)
	}
}
