// Package probe drives measurements end to end: it borrows a session from
// the pool, steers the measurement site, waits for completion and hands the
// result regions to the extract package.
package probe

import "github.com/use-agent/itdog/models"

// Everything that knows the measurement site's markup lives in this file.
// The URLs, XPaths and injected scripts below are a contract with a page we
// do not control; when the site reshapes, this file is where the fix lands,
// and the drift monitor is what notices first.

// measurePages maps each measurement kind to the page that runs it.
var measurePages = map[string]string{
	models.KindIPv4Ping:       "https://www.itdog.cn/ping/",
	models.KindIPv4TCPing:     "https://www.itdog.cn/tcping/",
	models.KindIPv4Web:        "https://www.itdog.cn/http/",
	models.KindIPv4Traceroute: "https://www.itdog.cn/traceroute/",
	models.KindIPv6Ping:       "https://www.itdog.cn/ping_ipv6/",
	models.KindIPv6TCPing:     "https://www.itdog.cn/tcping_ipv6/",
	models.KindIPv6Web:        "https://www.itdog.cn/http_ipv6/",
	models.KindIPv6Traceroute: "https://www.itdog.cn/traceroute_ipv6/",
}

// nodePages maps an IP version to the page carrying its vantage selector.
var nodePages = map[string]string{
	"ipv4": "https://www.itdog.cn/traceroute/",
	"ipv6": "https://www.itdog.cn/traceroute_ipv6/",
}

// Result-region locators.
const (
	xTabs        = `//*[@id="pills-tabContent"]`
	xChinaTable  = `//*[@id="china_region"]`
	xGlobalTable = `//*[@id="global_region"]`
	xDNSPanel    = `//*[@id="screenshots"]/div/div/div/div[4]/div/div`
	xAllPoints   = `//*[@id="return_info"]/div/div`
	xProgress    = `//*[@id="complete_progress"]/div`
	xNodeSelect  = `//*[@id="screenshots"]/div/div/div/div[3]/div/div/div[3]/div[1]/select`
	xTraceroute  = `//*[@id="tracert_result"]/div`
)

// Page-side scripts, evaluated as functions so values are passed as
// arguments instead of being spliced into the source.
const (
	// jsTrigger fills the host field and starts a fast measurement.
	// check_form is the page's own entry point.
	jsTrigger = `(target) => {
		document.getElementById('host').value = target;
		check_form('fast');
		setTimeout(function () {}, 1e4);
	}`

	// jsDNSOverride switches the resolver choice to a custom server.
	jsDNSOverride = `(server) => {
		document.querySelector('input[name="dns_server_type"][value="custom"]').click();
		document.getElementById('dns_server').value = server;
	}`

	// jsSelectNode picks a vantage node by its visible label. The select
	// is enhanced by the page's jQuery plugin; plain value assignment
	// does not fire its change handler.
	jsSelectNode = `(name) => {
		$('.node_select').val(function () {
			return $(this).find('option').filter(function () {
				return $(this).text().trim() === name;
			}).val();
		}).trigger('change');
	}`

	// jsShowGlobal switches the result tabs to the global region.
	jsShowGlobal = `() => {
		document.querySelector('a.nav-link[id="pills-profile-tab"]').click();
	}`

	// jsRemoveAds clears the ad links and the page header before regions
	// are read or the map is captured.
	jsRemoveAds = `() => {
		$('.gg_link').remove();
		document.querySelector('.page-header').style.display = 'none';
	}`

	// jsDisableDialogs neuters blocking dialogs after navigation. A single
	// alert would stall the whole measurement.
	jsDisableDialogs = `() => {
		window.alert = window.confirm = window.prompt = function () {};
		window.print = function () {};
		window.find = function () {};
		window.requestFileSystem = function () {};
	}`

	// jsNavStatus reads the navigation's HTTP status without CDP event
	// listeners, which conflict with the hijack router on newer Chromium.
	jsNavStatus = `() => {
		try {
			const entries = performance.getEntriesByType('navigation');
			if (entries.length > 0) return entries[0].responseStatus || 0;
		} catch (e) {}
		return 0;
	}`
)

// sessionInit runs before any document script in a session's pages. The
// stealth library covers fingerprint masking; this adds the interaction
// hardening: measurement pages must never navigate away, open windows or
// select-drag while the page is being driven.
const sessionInit = `(() => {
	window.addEventListener('beforeunload', (event) => {
		event.preventDefault();
		event.returnValue = 'Navigation blocked';
	});
	document.addEventListener('contextmenu', (event) => event.preventDefault());
	document.addEventListener('selectstart', (event) => event.preventDefault());
	window.open = function () { return null; };
})();`
