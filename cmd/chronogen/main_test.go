package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const orderXML = `<?xml version="1.0" encoding="UTF-8"?>
<MithraObject objectClass="com.example.trade.Order" table="ORDERS">
  <Attribute name="orderId" javaType="long" columnName="ORDER_ID" primaryKey="true" nullable="false" identity="true"/>
  <Attribute name="description" javaType="String" columnName="DESCRIPTION" maxLength="200" trim="true"/>
  <AsOfAttribute name="businessDate" fromColumnName="BUSINESS_FROM" toColumnName="BUSINESS_THRU"/>
  <AsOfAttribute name="processingDate" fromColumnName="PROCESSING_FROM" toColumnName="PROCESSING_THRU" isProcessingDate="true"/>
</MithraObject>
`

const customerXML = `<?xml version="1.0" encoding="UTF-8"?>
<MithraObject objectType="dated-transactional">
  <PackageName>com.example.crm</PackageName>
  <ClassName>Customer</ClassName>
  <Attribute name="customerId" javaType="int" columnName="CUSTOMER_ID" primaryKey="true" nullable="false"/>
  <Attribute name="name" javaType="String" columnName="NAME" maxLength="64"/>
  <AsOfAttribute name="businessDate" fromColumnName="FROM_Z" toColumnName="THRU_Z"/>
</MithraObject>
`

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestRunUsage(t *testing.T) {
	for _, args := range [][]string{nil, {"schemas"}, {"schemas", "out"}} {
		t.Run(strings.Join(args, "_"), func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			code := run(context.Background(), args, &stdout, &stderr)
			assert.Equal(t, 1, code)
			assert.Contains(t, stderr.String(), "expected 3 arguments")
			assert.Contains(t, stderr.String(), "Usage:")
			assert.Empty(t, stdout.String())
		})
	}
}

func TestRunGenerate(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "go.mod"), "module example.com/app\n\ngo 1.24\n")
	schemas := filepath.Join(root, "schemas")
	writeFile(t, filepath.Join(schemas, "Order.xml"), orderXML)
	writeFile(t, filepath.Join(schemas, "Customer.xml"), customerXML)
	writeFile(t, filepath.Join(schemas, "Broken.xml"), "<MithraObject")
	repo := filepath.Join(root, "repo")
	model := filepath.Join(root, "model")

	var stdout, stderr bytes.Buffer
	args := []string{schemas, repo, model, "--config", filepath.Join(root, "absent.yaml"), "--ddl", "postgres"}
	code := run(context.Background(), args, &stdout, &stderr)
	require.Equal(t, 0, code, stderr.String())

	assert.Contains(t, stdout.String(), "processed 3 schema files")
	assert.Contains(t, stdout.String(), "1 failed")
	assert.Contains(t, stdout.String(), "Broken.xml")
	assert.Contains(t, stderr.String(), "falling back to legacy generator")

	for _, f := range []string{
		filepath.Join(model, "order.go"),
		filepath.Join(repo, "order_repository.go"),
		filepath.Join(repo, "order_query.go"),
		filepath.Join(repo, "order.sql"),
		filepath.Join(model, "customer.go"),
		filepath.Join(repo, "customer_repository.go"),
		filepath.Join(repo, "customer_query.go"),
	} {
		assert.FileExists(t, f)
	}
	b, err := os.ReadFile(filepath.Join(repo, "order_repository.go"))
	require.NoError(t, err)
	assert.Contains(t, string(b), `"example.com/app/model"`)
	assert.True(t, strings.HasPrefix(string(b), "// Code generated by chronogen. DO NOT EDIT."))
}

func TestRunLegacyOnly(t *testing.T) {
	root := t.TempDir()
	schemas := filepath.Join(root, "schemas")
	writeFile(t, filepath.Join(schemas, "Customer.xml"), customerXML)
	out := filepath.Join(root, "out")

	var stdout, stderr bytes.Buffer
	args := []string{schemas, out, out, "--config", filepath.Join(root, "absent.yaml"), "--legacy-only"}
	require.Equal(t, 0, run(context.Background(), args, &stdout, &stderr), stderr.String())
	assert.NotContains(t, stderr.String(), "falling back")
	assert.FileExists(t, filepath.Join(out, "customer.go"))
	assert.FileExists(t, filepath.Join(out, "customer_repository.go"))
}

func TestRunBadConfig(t *testing.T) {
	root := t.TempDir()
	cfg := filepath.Join(root, "chrono.yaml")
	writeFile(t, cfg, "generate:\n  ddl: oracle\n")

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{root, root, root, "--config", cfg}, &stdout, &stderr)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), "generate.ddl")
}

func TestRunSequence(t *testing.T) {
	root := t.TempDir()
	cfg := filepath.Join(root, "chrono.yaml")
	writeFile(t, cfg, `connections:
  - name: main
    dialect: sqlite
    dsn: `+filepath.Join(root, "seq.db")+`
    max_open_conns: 1
`)

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"sequence", "next", "Order", "--connection", "main", "--create-table", "--count", "3", "--config", cfg}, &stdout, &stderr)
	require.Equal(t, 0, code, stderr.String())
	assert.Equal(t, "1000\n1001\n1002\n", stdout.String())

	stdout.Reset()
	stderr.Reset()
	code = run(context.Background(), []string{"sequence", "reset", "Order", "5000", "--connection", "main", "--config", cfg, "--log-level", "debug"}, &stdout, &stderr)
	require.Equal(t, 0, code, stderr.String())
	assert.Contains(t, stderr.String(), "connection statistics")
	assert.Contains(t, stderr.String(), "commits=1 rollbacks=0 conflicts=0")

	stdout.Reset()
	code = run(context.Background(), []string{"sequence", "next", "Order", "--connection", "main", "--config", cfg}, &stdout, &stderr)
	require.Equal(t, 0, code, stderr.String())
	assert.Equal(t, "5000\n", stdout.String())

	code = run(context.Background(), []string{"sequence", "next", "Order", "--connection", "other", "--config", cfg}, &stdout, &stderr)
	assert.Equal(t, 1, code)
}
