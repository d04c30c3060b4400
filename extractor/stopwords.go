package extractor

import "strings"

// StopwordSet is a read-only set of lowercase function words.
type StopwordSet map[string]struct{}

func (s StopwordSet) Contains(word string) bool {
	_, ok := s[word]
	return ok
}

func newSet(words string) StopwordSet {
	set := make(StopwordSet)
	for _, w := range strings.Fields(words) {
		set[w] = struct{}{}
	}
	return set
}

// Neutral is used when no stopword list exists for a language.
var Neutral = StopwordSet{}

var stopwordSets = map[string]StopwordSet{
	"en": newSet(`a about above after again against all am an and any are as at be because been
		before being below between both but by can could did do does doing down during each few for
		from further had has have having he her here hers herself him himself his how i if in into is
		it its itself just me more most my myself no nor not now of off on once only or other our ours
		ourselves out over own same she should so some such than that the their theirs them themselves
		then there these they this those through to too under until up very was we were what when where
		which while who whom why will with would you your yours yourself yourselves also may might must
		shall us get got one two`),
	"fr": newSet(`a à ai aie aient aies ait alors as au aucun aura aurai auraient aurais aurait aux
		avaient avais avait avec avez aviez avions avoir avons ayant bien c ça car ce ceci cela celle
		celles celui cependant ces cet cette ceux chez comme comment d dans de des donc dont du elle
		elles en encore es est et étaient étais était étant été êtes étions être eu eux fait font il ils
		j je l la le les leur leurs lui m ma mais me même mes moi mon n ne ni nos notre nous on ont ou où
		par pas peu peut peuvent plus pour pourquoi qu quand que quel quelle quelles quels qui quoi s sa
		sans se sera seront ses si son sont sous sur t ta te tes toi ton tous tout toute toutes très tu
		un une vers vos votre vous y`),
	"es": newSet(`a al algo algunas algunos ante antes como con contra cual cuando de del desde donde
		durante e el ella ellas ellos en entre era erais eran eras eres es esa esas ese eso esos esta
		estaba estado estamos estan estar este esto estos fue fueron fui ha habia han hasta hay la las
		le les lo los mas me mi mis mucho muy nada ni no nos nosotros o os otra otro para pero poco por
		porque que quien se ser si sin sobre su sus también te tiene tienen todo todos tu tus un una
		uno unos y ya yo`),
	"de": newSet(`aber alle allem allen aller als also am an ander andere anderen auch auf aus bei
		bin bis bist da damit dann das dass dem den denn der des die dies diese diesem diesen dieser
		doch dort du durch ein eine einem einen einer eines er es etwas euch für gegen hab habe haben
		hat hatte hier hin ich ihm ihn ihr ihre im in ist jede jedem jeden jeder jetzt kann kein keine
		man mein meine mich mit muss nach nicht noch nun nur ob oder ohne sein seine sich sie sind so
		solche sollte sondern über um und uns unser unter viel vom von vor war waren was weil welche
		wenn wer wie wir wird wo zu zum zur`),
	"it": newSet(`a ad al alla alle anche avere c che chi ci come con contro cui da dal dalla dei del
		della delle di dove e ed è gli ha hanno i il in io la le lei li lo loro lui ma mi mia mio ne
		nei nel nella noi non nostro o per perché più quale quando quanto quella quello questa questo
		si sia siamo sono su sua sue sui sul sulla suo tra tu tutti tutto un una uno voi`),
	"pt": newSet(`a ao aos as até com como da das de dela dele do dos e é ela elas ele eles em entre
		era essa esse esta este eu foi for há isso isto já lhe mais mas me mesmo meu minha muito na
		não nas nem no nos nós o os ou para pela pelo por qual quando que quem se sem seu sua são só
		também te tem ter um uma você`),
}

// Stopwords returns the stopword set for a normalized language code.
func Stopwords(lang string) (StopwordSet, bool) {
	set, ok := stopwordSets[lang]
	return set, ok
}

// SupportedLanguages lists the languages with a stopword set.
func SupportedLanguages() []string {
	return []string{"de", "en", "es", "fr", "it", "pt"}
}
