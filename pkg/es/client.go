// Package es 提供了与 Elasticsearch 交互的客户端功能。
package es

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"speaker-negotiator/internal/config"
	"speaker-negotiator/internal/model"
	"speaker-negotiator/pkg/log"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

// turnMapping 是议价轮次索引的结构。message/response 全文检索，其余字段精确过滤。
const turnMapping = `{
	"mappings": {
		"properties": {
			"event_id": { "type": "keyword" },
			"session_id": { "type": "keyword" },
			"message": { "type": "text", "analyzer": "english" },
			"response": { "type": "text", "analyzer": "english" },
			"rule": { "type": "keyword" },
			"tier": { "type": "keyword" },
			"outcome": { "type": "keyword" },
			"score": { "type": "float" },
			"created_at": { "type": "date" }
		}
	}
}`

// TurnIndex 负责议价轮次在 Elasticsearch 中的写入和检索。
type TurnIndex struct {
	client    *elasticsearch.Client
	indexName string
}

// NewTurnIndex 初始化 Elasticsearch 客户端并确保索引存在。
func NewTurnIndex(esCfg config.ElasticsearchConfig) (*TurnIndex, error) {
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: strings.Split(esCfg.Addresses, ","),
		Username:  esCfg.Username,
		Password:  esCfg.Password,
	})
	if err != nil {
		return nil, err
	}
	idx := &TurnIndex{client: client, indexName: esCfg.IndexName}
	if err := idx.createIndexIfNotExists(context.Background()); err != nil {
		return nil, err
	}
	return idx, nil
}

// createIndexIfNotExists 检查索引是否存在，如果不存在则创建它
func (t *TurnIndex) createIndexIfNotExists(ctx context.Context) error {
	res, err := t.client.Indices.Exists([]string{t.indexName}, t.client.Indices.Exists.WithContext(ctx))
	if err != nil {
		log.Errorf("检查索引是否存在时出错: %v", err)
		return err
	}
	res.Body.Close()
	// 如果 res.StatusCode 是 200，说明索引已存在
	if res.StatusCode == http.StatusOK {
		log.Infof("索引 '%s' 已存在", t.indexName)
		return nil
	}
	if res.StatusCode != http.StatusNotFound {
		return fmt.Errorf("检查索引是否存在时收到意外的状态码: %d", res.StatusCode)
	}

	res, err = t.client.Indices.Create(
		t.indexName,
		t.client.Indices.Create.WithBody(strings.NewReader(turnMapping)),
		t.client.Indices.Create.WithContext(ctx),
	)
	if err != nil {
		log.Errorf("创建索引 '%s' 失败: %v", t.indexName, err)
		return err
	}
	defer res.Body.Close()
	if res.IsError() {
		log.Errorf("创建索引 '%s' 时 Elasticsearch 返回错误: %s", t.indexName, res.String())
		return errors.New("创建索引时 Elasticsearch 返回错误")
	}

	log.Infof("索引 '%s' 创建成功", t.indexName)
	return nil
}

// IndexTurn 以事件 ID 为文档 ID 写入一轮议价，重复写入会覆盖而不是新增。
func (t *TurnIndex) IndexTurn(ctx context.Context, doc model.TurnDocument) error {
	docBytes, err := json.Marshal(doc)
	if err != nil {
		return err
	}

	req := esapi.IndexRequest{
		Index:      t.indexName,
		DocumentID: doc.EventID,
		Body:       bytes.NewReader(docBytes),
	}
	res, err := req.Do(ctx, t.client)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.IsError() {
		log.Errorf("索引文档到 Elasticsearch 出错: %s", res.String())
		return errors.New("failed to index turn")
	}
	return nil
}

type searchResponse struct {
	Hits struct {
		Hits []struct {
			Score  float64            `json:"_score"`
			Source model.TurnDocument `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

// SearchTurns 在买家消息和机器人回复中全文检索，按相关度返回前 size 条。
func (t *TurnIndex) SearchTurns(ctx context.Context, query string, size int) ([]model.TurnSearchResult, error) {
	body := map[string]interface{}{
		"size": size,
		"query": map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":  query,
				"fields": []string{"message^2", "response"},
			},
		},
		"sort": []interface{}{"_score", map[string]string{"created_at": "desc"}},
	}
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return nil, err
	}

	res, err := t.client.Search(
		t.client.Search.WithContext(ctx),
		t.client.Search.WithIndex(t.indexName),
		t.client.Search.WithBody(&buf),
	)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	if res.IsError() {
		log.Errorf("Elasticsearch 检索出错: %s", res.String())
		return nil, errors.New("failed to search turns")
	}

	var parsed searchResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("解析检索结果失败: %w", err)
	}
	results := make([]model.TurnSearchResult, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		results = append(results, model.TurnSearchResult{TurnDocument: h.Source, Hit: h.Score})
	}
	return results, nil
}
