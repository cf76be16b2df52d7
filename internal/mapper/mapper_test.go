package mapper

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sqlpp/pkg/sqlfmt"
)

const header = `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE mapper PUBLIC "-//mybatis.org//DTD Mapper 3.0//EN" "http://mybatis.org/dtd/mybatis-3-mapper.dtd">
`

func newRewriter(t *testing.T, width, indent int) *Rewriter {
	t.Helper()
	r, err := NewRewriter(sqlfmt.Options{LineWidth: width, IndentWidth: indent}, nil)
	require.NoError(t, err)
	return r
}

func TestRewrite_PlainBody(t *testing.T) {
	src := header + `<mapper namespace="app.UserMapper">
    <select id="byId" resultType="User">
        select id, name from users where id = #{id}
    </select>
</mapper>
`
	want := header + `<mapper namespace="app.UserMapper">
    <select id="byId" resultType="User">
      SELECT id , name FROM users WHERE id = #{id}
    </select>
</mapper>
`
	out, res, err := newRewriter(t, 80, 2).Rewrite([]byte(src))
	require.NoError(t, err)
	assert.Equal(t, want, string(out))
	assert.Equal(t, Result{Statements: 1, Formatted: 1}, res)
	assert.True(t, res.Changed())
}

func TestRewrite_WidthExcludesIndent(t *testing.T) {
	src := "<mapper>\n  <delete id=\"d\">select * from tbl where a=b</delete>\n</mapper>"
	want := "<mapper>\n  <delete id=\"d\">\n    SELECT *\n    FROM tbl\n    WHERE a = b\n  </delete>\n</mapper>"

	out, _, err := newRewriter(t, 24, 2).Rewrite([]byte(src))
	require.NoError(t, err)
	assert.Equal(t, want, string(out))
}

func TestRewrite_WidthCountsRestoredParams(t *testing.T) {
	src := "<mapper>\n  <select id=\"s\">select id, name from users " +
		"where name = #{name,jdbcType=VARCHAR} and id = #{id}</select>\n</mapper>"
	want := "<mapper>\n  <select id=\"s\">\n" +
		"    SELECT id , name\n" +
		"    FROM users\n" +
		"    WHERE name\n" +
		"        = #{name,jdbcType=VARCHAR}\n" +
		"      AND id = #{id}\n" +
		"  </select>\n</mapper>"

	out, _, err := newRewriter(t, 40, 2).Rewrite([]byte(src))
	require.NoError(t, err)
	assert.Equal(t, want, string(out))
	for _, line := range strings.Split(string(out), "\n") {
		assert.LessOrEqual(t, utf8.RuneCountInString(line), 40, line)
	}
}

func TestRewrite_EscapedText(t *testing.T) {
	src := "<mapper>\n<select id=\"lt\">select a from t where a &lt; #{max}</select>\n</mapper>"
	want := "<mapper>\n<select id=\"lt\">\n  SELECT a FROM t WHERE a &lt; #{max}\n</select>\n</mapper>"

	out, _, err := newRewriter(t, 80, 2).Rewrite([]byte(src))
	require.NoError(t, err)
	assert.Equal(t, want, string(out))
}

func TestRewrite_CDATAPreserved(t *testing.T) {
	src := "<mapper>\n    <select id=\"lt\"><![CDATA[select * from t where a < #{a}]]></select>\n</mapper>"
	want := "<mapper>\n    <select id=\"lt\"><![CDATA[\n      SELECT * FROM t WHERE a < #{a}\n    ]]></select>\n</mapper>"

	out, _, err := newRewriter(t, 80, 2).Rewrite([]byte(src))
	require.NoError(t, err)
	assert.Equal(t, want, string(out))
}

func TestRewrite_DynamicBodyUntouched(t *testing.T) {
	src := `<mapper>
  <select id="find">select * from t <where><if test="a != null">a = #{a}</if></where></select>
  <update id="touch">update t set seen = 1 <!-- all rows --></update>
</mapper>`

	out, res, err := newRewriter(t, 80, 2).Rewrite([]byte(src))
	require.NoError(t, err)
	assert.Equal(t, src, string(out))
	assert.Equal(t, Result{Statements: 2, Dynamic: 2}, res)
	assert.False(t, res.Changed())
}

func TestRewrite_FailureKeepsOriginalAndWarns(t *testing.T) {
	src := `<mapper>
  <select id="broken">select * from</select>
  <select id="grouped">select a from t group by grouping sets ((a))</select>
  <insert id="add">insert into t (a) values (#{a})</insert>
</mapper>`

	var logs bytes.Buffer
	r, err := NewRewriter(sqlfmt.DefaultOptions(), slog.New(slog.NewJSONHandler(&logs, nil)))
	require.NoError(t, err)

	out, res, err := r.Rewrite([]byte(src))
	require.NoError(t, err)
	assert.Contains(t, string(out), `<select id="broken">select * from</select>`)
	assert.Contains(t, string(out), "group by grouping sets ((a))</select>")
	assert.Contains(t, string(out), "\n    INSERT INTO t ( a) VALUES ( #{a})\n  </insert>")
	assert.Equal(t, Result{Statements: 3, Formatted: 1, Failed: 2}, res)

	assert.Contains(t, logs.String(), `"msg":"statement left unformatted"`)
	assert.Contains(t, logs.String(), `"id":"broken"`)
	assert.Contains(t, logs.String(), `"id":"grouped"`)
}

func TestRewrite_OnlyDirectMapperChildren(t *testing.T) {
	for _, src := range []string{
		"<root><select>select 1 from t</select></root>",
		"<mapper><sql id=\"cols\">a, b</sql><resultMap id=\"m\"><select>select 1 from t</select></resultMap></mapper>",
	} {
		out, res, err := newRewriter(t, 80, 2).Rewrite([]byte(src))
		require.NoError(t, err)
		assert.Equal(t, src, string(out))
		assert.Zero(t, res.Statements)
	}
}

func TestRewrite_EmptyBodies(t *testing.T) {
	src := "<mapper><select id=\"a\"/><select id=\"b\">   </select></mapper>"
	out, res, err := newRewriter(t, 80, 2).Rewrite([]byte(src))
	require.NoError(t, err)
	assert.Equal(t, src, string(out))
	assert.Equal(t, 2, res.Statements)
	assert.Zero(t, res.Formatted)
}

func TestRewrite_Idempotent(t *testing.T) {
	src := header + `<mapper namespace="app.OrderMapper">
    <select id="recent">
        select o.id, o.total, c.name from orders o inner join customers c on c.id = o.customer_id
        where o.created_at > #{since} and o.status in ('open', 'paid') order by o.created_at desc
    </select>
    <update id="pay"><![CDATA[update orders set status = 'paid', paid_at = #{now} where id = #{id} and total < #{limit}]]></update>
</mapper>
`
	for _, width := range []int{30, 60, 120} {
		r := newRewriter(t, width, 2)
		once, res, err := r.Rewrite([]byte(src))
		require.NoError(t, err)
		require.Equal(t, 2, res.Formatted, "width %d", width)

		twice, _, err := r.Rewrite(once)
		require.NoError(t, err)
		assert.Equal(t, string(once), string(twice), "width %d", width)
	}
}

func TestRewrite_MalformedXML(t *testing.T) {
	_, _, err := newRewriter(t, 80, 2).Rewrite([]byte("<mapper><select>select 1</mapper>"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse mapper xml")
}

func TestNewRewriter_InvalidOptions(t *testing.T) {
	_, err := NewRewriter(sqlfmt.Options{LineWidth: 0, IndentWidth: 2}, nil)
	var verr *sqlfmt.ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestIsMapperFile(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
		return path
	}

	assert.True(t, IsMapperFile(write("user.xml", header+"<mapper namespace=\"x\"></mapper>")))
	assert.False(t, IsMapperFile(write("config.xml", "<configuration></configuration>")))
	assert.False(t, IsMapperFile(write("notes.txt", "select * from t")))
	assert.False(t, IsMapperFile(dir))
	assert.False(t, IsMapperFile(filepath.Join(dir, "missing.xml")))
}
