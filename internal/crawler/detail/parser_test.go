package detail

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleDetailPage = `<html><body>
<h1 class="title">某某奶粉 3段</h1>
<ul class="left new-left-box">
	<li class="item">品牌：某某</li>
	<li class="item">系列：金装系列</li>
	<li class="item">产地：荷兰</li>
	<li class="item">奶源：荷兰</li>
	<li class="item">适用年龄：1-3岁</li>
	<li class="item">出品方：某某乳业</li>
</ul>
<ul class="right">
	<li class="item">厂家：某某工厂</li>
	<li class="item">规格：800g</li>
	<li class="item">段位：3段</li>
	<li class="item">参考价：￥398</li>
	<li class="item">类别：牛奶粉</li>
	<li class="item">版本：国行版</li>
	<li class="item">配方注册号：国食注字YP12345678</li>
</ul>
<div id="mixtu">生牛乳，脱盐乳清粉，植物油</div>
<div id="nutrient">蛋白质 12g/100g</div>
<div id="fg_comment">整体配方表现均衡。</div>
</body></html>`

func parseHTML(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return doc
}

func TestParse(t *testing.T) {
	d, err := Parse(parseHTML(t, sampleDetailPage), "5")
	require.NoError(t, err)

	assert.Equal(t, "5", d.ID)
	assert.Equal(t, "某某奶粉 3段", d.Name)
	assert.Equal(t, "某某", d.Brand)
	assert.Equal(t, "金装系列", d.Series)
	assert.Equal(t, "荷兰", d.Origin)
	assert.Equal(t, "荷兰", d.MilkSource)
	assert.Equal(t, "1-3岁", d.AgeRange)
	assert.Equal(t, "某某工厂", d.Manufacturer)
	assert.Equal(t, "800g", d.Specification)
	assert.Equal(t, "3段", d.Stage)
	assert.Equal(t, "牛奶粉", d.Category)
	assert.Equal(t, "国行版", d.Version)
	assert.Equal(t, "国食注字YP12345678", d.FormulaRegistration)

	// 가격 계열 키는 통화 기호가 제거됩니다.
	assert.Equal(t, "398", d.ReferencePrice)

	assert.Equal(t, "生牛乳，脱盐乳清粉，植物油", d.Ingredients)
	assert.Equal(t, "蛋白质 12g/100g", d.NutrientText)
	assert.Equal(t, "整体配方表现均衡。", d.Commentary)

	// 매핑되지 않은 속성 키는 Extra에 보존됩니다.
	assert.Equal(t, "某某乳业", d.Extra["出品方"])
}

func TestParse_RegistrationFallback(t *testing.T) {
	// 속성 항목 구조가 아닌 위치의 배치 문구에서도 정규식으로 추출합니다.
	html := `<html><body>
<h1 class="title">상품</h1>
<ul class="right"><div>本品配方注册号： 国食注字YP99990000 已通过审批</div></ul>
</body></html>`

	d, err := Parse(parseHTML(t, html), "9")
	require.NoError(t, err)
	assert.Equal(t, "国食注字YP99990000", d.FormulaRegistration)
}

func TestParse_MalformedItemsSkipped(t *testing.T) {
	html := `<html><body>
<h1 class="title">상품</h1>
<ul class="right">
	<li class="item">구분자가 없는 항목</li>
	<li class="item">段位：2段</li>
</ul>
</body></html>`

	d, err := Parse(parseHTML(t, html), "1")
	require.NoError(t, err)
	assert.Equal(t, "2段", d.Stage)
	assert.Empty(t, d.Extra)
}

func TestParse_NothingExtracted(t *testing.T) {
	_, err := Parse(parseHTML(t, `<html><body><p>redesigned page</p></body></html>`), "1")
	require.Error(t, err)
}
