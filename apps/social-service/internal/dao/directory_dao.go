package dao

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"gamepal-social/apps/social-service/internal/model"
	"gamepal-social/pkg/logger"
)

// directoryDAO 用户目录数据访问对象（Elasticsearch）
type directoryDAO struct {
	client *elasticsearch.Client
	logger logger.Logger
}

// NewDirectoryDAO 创建目录DAO实例
func NewDirectoryDAO(client *elasticsearch.Client, log logger.Logger) DirectoryDAO {
	return &directoryDAO{
		client: client,
		logger: log,
	}
}

// IndexUser 写入或更新用户目录文档，文档ID取用户ID
func (d *directoryDAO) IndexUser(ctx context.Context, doc *model.UserDoc) error {
	docJSON, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal user doc: %v", err)
	}

	req := esapi.IndexRequest{
		Index:      model.UserIndexName,
		DocumentID: strconv.FormatInt(doc.UserID, 10),
		Body:       bytes.NewReader(docJSON),
		Refresh:    "false",
	}

	res, err := req.Do(ctx, d.client)
	if err != nil {
		d.logger.Error(ctx, "Failed to index user doc",
			logger.F("userID", doc.UserID),
			logger.F("error", err.Error()))
		return fmt.Errorf("failed to index user doc: %v", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("failed to index user doc: %s", res.String())
	}

	return nil
}

// SearchUsers 按关键词搜索用户目录
func (d *directoryDAO) SearchUsers(ctx context.Context, keyword string, limit int) ([]*model.UserDoc, error) {
	if limit <= 0 {
		limit = 20
	}

	query := map[string]interface{}{
		"query": map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":  keyword,
				"fields": []string{"username^2", "nickname^2", "bio"},
				"type":   "best_fields",
			},
		},
		"size": limit,
	}

	queryJSON, err := json.Marshal(query)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal search query: %v", err)
	}

	req := esapi.SearchRequest{
		Index: []string{model.UserIndexName},
		Body:  bytes.NewReader(queryJSON),
	}

	res, err := req.Do(ctx, d.client)
	if err != nil {
		return nil, fmt.Errorf("failed to search users: %v", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("failed to search users: %s", res.String())
	}

	var result struct {
		Hits struct {
			Hits []struct {
				Source model.UserDoc `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %v", err)
	}

	docs := make([]*model.UserDoc, 0, len(result.Hits.Hits))
	for i := range result.Hits.Hits {
		doc := result.Hits.Hits[i].Source
		docs = append(docs, &doc)
	}
	return docs, nil
}
