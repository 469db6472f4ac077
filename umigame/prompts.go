package umigame

// Prompt templates for the generative backend. The problem template demands
// tagged fields so the reply can be parsed mechanically; the answer template
// constrains the judge to a fixed vocabulary.

const problemPromptTemplate = `あなたは「ウミガメのスープ」(水平思考クイズ)の出題者です。
お題「{{.Topic}}」にちなんだ問題を1問作成してください。

出力は必ず次の形式に従ってください。タグの外には何も書かないでください。

<problem>問題文。不可解な状況を簡潔に描写する。</problem>
<reason>真相。問題文の状況が成立する理由を説明する。</reason>
<hint1>軽いヒント</hint1>
<hint2>中程度のヒント</hint2>
<hint3>核心に近いヒント</hint3>`

const answerPromptTemplate = `あなたは「ウミガメのスープ」の出題者です。次の問題と真相を踏まえて、
参加者の質問に答えてください。

問題: {{.Problem}}
真相: {{.Reason}}
質問: {{.Question}}

回答は次のいずれかの単語のみで答えてください。
「はい」「いいえ」「おおむねはい」「おおむねいいえ」「わからない」
質問が真相を言い当てている場合のみ「正解」と答えてください。`
