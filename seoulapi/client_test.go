// Copyright (c) 2024 The Seoul Map Project and its Contributors
//
// Permission is hereby granted, free of charge, to any person obtaining a copy of
// this software and associated documentation files (the "Software"), to deal in
// the Software without restriction, including without limitation the rights to
// use, copy, modify, merge, publish, distribute, sublicense, and/or sell copies
// of the Software, and to permit persons to whom the Software is furnished to do
// so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

package seoulapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

const airQualityMarkup = `<?xml version="1.0" encoding="UTF-8"?>
<RealtimeCityAir>
<list_total_count>3</list_total_count>
<RESULT>
<CODE>INFO-000</CODE>
<MESSAGE>정상 처리되었습니다</MESSAGE>
</RESULT>
<row>
<MSRDT>202408290500</MSRDT>
<MSRRGN_NM>도심권</MSRRGN_NM>
<MSRSTN_NM>중구</MSRSTN_NM>
<PM>35</PM>
<FPM>18</FPM>
<OZON>0.031</OZON>
<NTDX>0.018</NTDX>
<CBMX>0.5</CBMX>
<CAI_IDX>62</CAI_IDX>
</row>
<row>
<MSRSTN_NM>종로구</MSRSTN_NM>
<PM>41</PM>
<FPM>22</FPM>
<OZON>0.028</OZON>
</row>
<row>
<MSRSTN_NM>용산구</MSRSTN_NM>
<PM></PM>
<FPM>15</FPM>
<ARPLT_MAIN/>
</row>
</RealtimeCityAir>`

const noDataMarkup = `<?xml version="1.0" encoding="UTF-8"?>
<RESULT>
<CODE>INFO-200</CODE>
<MESSAGE>해당하는 데이터가 없습니다.</MESSAGE>
</RESULT>`

const badKeyMarkup = `<?xml version="1.0" encoding="UTF-8"?>
<RESULT>
<CODE>INFO-100</CODE>
<MESSAGE>인증키가 유효하지 않습니다.</MESSAGE>
</RESULT>`

const datedMarkup = `<?xml version="1.0" encoding="UTF-8"?>
<SPOP_LOCAL_RESD_DONG>
<list_total_count>11208</list_total_count>
<RESULT><CODE>INFO-000</CODE><MESSAGE>OK</MESSAGE></RESULT>
<row>
<STDR_DE>20240827</STDR_DE>
<TMZON_PD_SE>0</TMZON_PD_SE>
<ADSTRD_CODE_SE>11110515</ADSTRD_CODE_SE>
<TOT_LVPOP_CO>10151.2</TOT_LVPOP_CO>
</row>
</SPOP_LOCAL_RESD_DONG>`

const bikeListJson = `{"rentBikeStatus":{"list_total_count":2,
"RESULT":{"CODE":"INFO-000","MESSAGE":"정상 처리되었습니다."},
"row":[
{"rackTotCnt":"15","stationName":"102. 망원역 1번출구 앞","parkingBikeTotCnt":"7",
"stationLatitude":"37.55564880","stationLongitude":"126.91062927","stationId":"ST-4"},
{"rackTotCnt":"20","stationName":"103. 망원역 2번출구 앞","parkingBikeTotCnt":0,
"stationLatitude":37.554951,"stationLongitude":126.910835,"stationId":"ST-5"}
]}}`

const noDataJson = `{"RESULT":{"CODE":"INFO-200","MESSAGE":"해당하는 데이터가 없습니다."}}`

// serves a canned body with the given content type
func fixtureServer(t *testing.T, contentType, body string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", contentType)
			w.Write([]byte(body))
		}))
}

func testClient(server *httptest.Server) *Client {
	return NewClientWithBase(server.URL, "TESTKEY", time.Second, time.Second)
}

func TestFetchMarkupPage(t *testing.T) {
	assert := assert.New(t)
	server := fixtureServer(t, "text/xml;charset=UTF-8", airQualityMarkup)
	defer server.Close()

	page, err := testClient(server).FetchPage(context.Background(),
		"RealtimeCityAir/ALL", 1, 25)
	assert.Nil(err)
	assert.Equal("RealtimeCityAir", page.ServiceKey)
	assert.Equal(ResultOk, page.ResultCode)
	assert.False(page.NoData())
	assert.Equal(3, page.TotalCount)
	assert.Equal(3, len(page.Records))

	first := page.Records[0]
	assert.Equal("중구", first["MSRSTN_NM"])
	assert.Equal("35", first["PM"])
	assert.Equal("18", first["FPM"])
	assert.Equal("0.031", first["OZON"])
	assert.Equal("62", first["CAI_IDX"])

	// empty and self-closing fields survive as empty strings
	third := page.Records[2]
	assert.Equal("", third["PM"])
	empty, found := third["ARPLT_MAIN"]
	assert.True(found)
	assert.Equal("", empty)
}

func TestFetchPageExtractsAsOfDate(t *testing.T) {
	assert := assert.New(t)
	server := fixtureServer(t, "text/xml", datedMarkup)
	defer server.Close()

	page, err := testClient(server).FetchPage(context.Background(),
		"SPOP_LOCAL_RESD_DONG", 1, 467)
	assert.Nil(err)
	assert.Equal("20240827", page.AsOfDate)
	assert.Equal(11208, page.TotalCount)
	assert.Equal("10151.2", page.Records[0]["TOT_LVPOP_CO"])
}

func TestFetchPageNoDataIsNotAnError(t *testing.T) {
	assert := assert.New(t)
	server := fixtureServer(t, "text/xml", noDataMarkup)
	defer server.Close()

	page, err := testClient(server).FetchPage(context.Background(),
		"EmptyDataset", 1, 5)
	assert.Nil(err)
	assert.True(page.NoData())
	assert.Equal(0, len(page.Records))
}

func TestFetchPageReportsProtocolError(t *testing.T) {
	assert := assert.New(t)
	server := fixtureServer(t, "text/xml", badKeyMarkup)
	defer server.Close()

	_, err := testClient(server).FetchPage(context.Background(),
		"RealtimeCityAir/ALL", 1, 25)
	assert.NotNil(err)
	protocolErr, ok := err.(ProtocolError)
	assert.True(ok)
	assert.Equal("INFO-100", protocolErr.Code)
	assert.Contains(protocolErr.Message, "인증키")
	assert.False(IsRetryable(err))
}

func TestFetchPageReportsTransportError(t *testing.T) {
	assert := assert.New(t)
	server := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
	defer server.Close()

	_, err := testClient(server).FetchPage(context.Background(), "AnyDataset", 1, 5)
	assert.NotNil(err)
	transportErr, ok := err.(TransportError)
	assert.True(ok)
	assert.Equal(http.StatusBadGateway, transportErr.Status)
	assert.True(IsRetryable(err))
}

func TestFetchJsonPage(t *testing.T) {
	assert := assert.New(t)
	server := fixtureServer(t, "application/json", bikeListJson)
	defer server.Close()

	page, err := testClient(server).FetchJsonPage(context.Background(),
		"bikeList", 1, 1000)
	assert.Nil(err)
	assert.Equal("rentBikeStatus", page.ServiceKey)
	assert.Equal(2, page.TotalCount)
	assert.Equal(2, len(page.Records))
	assert.Equal("37.55564880", page.Records[0]["stationLatitude"])

	// numeric JSON values are coerced to strings
	assert.Equal("0", page.Records[1]["parkingBikeTotCnt"])
	assert.Equal("37.554951", page.Records[1]["stationLatitude"])
}

func TestFetchPageSniffsMislabeledJson(t *testing.T) {
	assert := assert.New(t)
	server := fixtureServer(t, "text/xml", bikeListJson)
	defer server.Close()

	page, err := testClient(server).FetchPage(context.Background(), "bikeList", 1, 1000)
	assert.Nil(err)
	assert.Equal("rentBikeStatus", page.ServiceKey)
	assert.Equal(2, len(page.Records))
}

func TestFetchJsonPageNoData(t *testing.T) {
	assert := assert.New(t)
	server := fixtureServer(t, "application/json", noDataJson)
	defer server.Close()

	page, err := testClient(server).FetchJsonPage(context.Background(),
		"bikeList", 1, 1000)
	assert.Nil(err)
	assert.True(page.NoData())
}

func TestFetchPageRejectsGarbage(t *testing.T) {
	assert := assert.New(t)
	server := fixtureServer(t, "text/html", "portal is down for maintenance")
	defer server.Close()

	_, err := testClient(server).FetchPage(context.Background(), "AnyDataset", 1, 5)
	assert.NotNil(err)
	_, ok := err.(MalformedResponseError)
	assert.True(ok)
	assert.False(IsRetryable(err))
}

func TestPageUrlLayout(t *testing.T) {
	assert := assert.New(t)
	client := NewClientWithBase("http://openapi.example.org:8088", "KEY",
		time.Second, time.Second)
	assert.Equal("http://openapi.example.org:8088/KEY/xml/RealtimeCityAir/ALL/1/25/",
		client.pageUrl(FormatMarkup, "RealtimeCityAir/ALL", 1, 25))
}
