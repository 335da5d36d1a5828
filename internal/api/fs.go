package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/s22625/voxfs/internal/model"
)

type listingBody struct {
	Items []model.Item `json:"items"`
}

// List returns the contents of the current directory
func (c *Client) List(ctx context.Context) (*model.Listing, error) {
	body, err := c.do(ctx, "list", http.MethodGet, "/ls", nil, "")
	if err != nil {
		return nil, err
	}
	return parseListing(body)
}

// parseListing accepts {"items": [...]} or a JSON string wrapping the same object
func parseListing(body []byte) (*model.Listing, error) {
	var lb listingBody
	if err := json.Unmarshal(body, &lb); err == nil && lb.Items != nil {
		return listingFrom(lb), nil
	}

	var wrapped string
	if err := json.Unmarshal(body, &wrapped); err == nil {
		var inner listingBody
		if err := json.Unmarshal([]byte(wrapped), &inner); err == nil && inner.Items != nil {
			return listingFrom(inner), nil
		}
	}

	if err := json.Unmarshal(body, &lb); err == nil {
		// Valid object without items: an empty directory from an older backend
		return &model.Listing{Items: []model.Item{}}, nil
	}

	return nil, fmt.Errorf("unexpected listing response format: %s", strings.TrimSpace(string(body)))
}

func listingFrom(lb listingBody) *model.Listing {
	items := make([]model.Item, 0, len(lb.Items))
	for _, item := range lb.Items {
		items = append(items, model.Item{Name: item.Name, Type: model.NormalizeItemType(string(item.Type))})
	}
	return &model.Listing{Items: items}
}

// Pwd returns the current directory as reported by the backend
func (c *Client) Pwd(ctx context.Context) (string, error) {
	body, err := c.do(ctx, "pwd", http.MethodGet, "/pwd", nil, "")
	if err != nil {
		return "", err
	}

	var obj struct {
		CurrentDir string `json:"currentDir"`
	}
	if err := json.Unmarshal(body, &obj); err == nil && obj.CurrentDir != "" {
		return obj.CurrentDir, nil
	}
	return strings.TrimSpace(decodeText(body)), nil
}

type changeDirBody struct {
	Status     string `json:"status"`
	CurrentDir string `json:"currentDir"`
}

// ChangeDir enters the named directory and returns the new current directory.
// ".." is routed to MoveUp.
func (c *Client) ChangeDir(ctx context.Context, name string) (string, error) {
	if name == ".." {
		if err := c.MoveUp(ctx); err != nil {
			return "", err
		}
		return c.Pwd(ctx)
	}

	body, err := c.do(ctx, "change directory", http.MethodPost, "/cd/"+segment(name), nil, "")
	if err != nil {
		return "", err
	}
	if err := checkStatus("change directory", body); err != nil {
		return "", err
	}

	var cd changeDirBody
	if err := json.Unmarshal(body, &cd); err != nil {
		return "", fmt.Errorf("decoding change directory response: %w", err)
	}
	return cd.CurrentDir, nil
}

// MoveUp leaves the current directory
func (c *Client) MoveUp(ctx context.Context) error {
	body, err := c.do(ctx, "move up", http.MethodPost, "/cd..", nil, "")
	if err != nil {
		return err
	}
	return checkStatus("move up", body)
}

// Mkdir creates a directory in the current directory
func (c *Client) Mkdir(ctx context.Context, name string) error {
	body, err := c.do(ctx, "create directory", http.MethodPost, "/mkdir/"+segment(name), nil, "")
	if err != nil {
		return err
	}
	return checkStatus("create directory", body)
}

// Rmdir removes a directory from the current directory
func (c *Client) Rmdir(ctx context.Context, name string) error {
	body, err := c.do(ctx, "remove directory", http.MethodDelete, "/rmdir/"+segment(name), nil, "")
	if err != nil {
		return err
	}
	return checkStatus("remove directory", body)
}

// CreateFile creates a file with the given content
func (c *Client) CreateFile(ctx context.Context, name, content string) error {
	body, err := c.doText(ctx, "create file", http.MethodPost, "/create-file/"+segment(name), content)
	if err != nil {
		return err
	}
	return checkStatus("create file", body)
}

// ReadFile returns the content of a file
func (c *Client) ReadFile(ctx context.Context, name string) (string, error) {
	body, err := c.do(ctx, "read file", http.MethodGet, "/read-file/"+segment(name), nil, "")
	if err != nil {
		return "", err
	}
	return decodeText(body), nil
}

// EditFile replaces the content of a file
func (c *Client) EditFile(ctx context.Context, name, content string) error {
	body, err := c.doText(ctx, "edit file", http.MethodPut, "/edit-file/"+segment(name), content)
	if err != nil {
		return err
	}
	return checkStatus("edit file", body)
}

// AppendFile appends content to a file
func (c *Client) AppendFile(ctx context.Context, name, content string) error {
	body, err := c.doText(ctx, "append file", http.MethodPut, "/append-file/"+segment(name), content)
	if err != nil {
		return err
	}
	return checkStatus("append file", body)
}

// DeleteFile removes a file from the current directory
func (c *Client) DeleteFile(ctx context.Context, name string) error {
	body, err := c.do(ctx, "delete file", http.MethodDelete, "/delete-file/"+segment(name), nil, "")
	if err != nil {
		return err
	}
	return checkStatus("delete file", body)
}

// Delete removes a file or directory depending on its type
func (c *Client) Delete(ctx context.Context, item model.Item) error {
	if item.IsDir() {
		return c.Rmdir(ctx, item.Name)
	}
	return c.DeleteFile(ctx, item.Name)
}

// Rename renames a file or directory in the current directory
func (c *Client) Rename(ctx context.Context, oldName, newName string) error {
	body, err := c.do(ctx, "rename", http.MethodPost, "/rename/"+segment(oldName)+"/"+segment(newName), nil, "")
	if err != nil {
		return err
	}
	return checkStatus("rename", body)
}
